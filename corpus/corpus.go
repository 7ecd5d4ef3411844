package corpus

import (
	"bufio"
	"os"
	"strings"

	log "github.com/golang/glog"
	"github.com/pkg/errors"
)

// Document is a single tagged training document: an ordered token
// sequence plus one or more tag identifiers. A document owns no
// vectors, its vectors live in the weight store indexed by tag.
type Document struct {
	Tokens []string
	Tags   []string
}

type Corpus struct {
	Docs []Document
}

// load training data from file, one document per line:
// [tag,tag,...<TAB>token token ... token]
// lines without a tab separator or without tokens are logged
// and skipped
func (this *Corpus) Load(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return errors.Wrap(err, "corpus: open")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		sep := strings.IndexByte(line, '\t')
		if sep < 0 {
			log.Warningf("bad document: %s", line)
			continue
		}

		tags := strings.Split(line[:sep], ",")
		tokens := strings.Fields(line[sep+1:])
		if len(tags) == 0 || tags[0] == "" || len(tokens) == 0 {
			log.Warningf("bad document: %s", line)
			continue
		}

		this.Docs = append(this.Docs, Document{
			Tokens: tokens,
			Tags:   tags,
		})
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "corpus: scan")
	}

	log.Infof("number of documents %d", len(this.Docs))
	return nil
}
