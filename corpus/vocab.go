package corpus

import (
	"fmt"
	"math"
	"sort"

	log "github.com/golang/glog"
)

// Entry is a single vocabulary word with its corpus statistics and the
// structures derived from them. Code and Point are only filled when the
// huffman tree has been built; Keep is the subsampling keep probability.
type Entry struct {
	Token string
	Count uint32
	Index uint32
	Code  []byte   // huffman bits, root first
	Point []uint32 // huffman inner node indices, root first
	Keep  float32
}

// Vocabulary maps tokens to dense indices [0, V). Indices are assigned
// in descending frequency order with ties broken by token string, so
// building twice from the same corpus yields identical assignments.
// Immutable once built.
type Vocabulary struct {
	Entries []*Entry
	Total   uint64 // total count over surviving tokens

	ids map[string]uint32
}

// BuildVocab scans the corpus once and counts token frequencies. Tokens
// with count below minCount are discarded permanently. When sample > 0
// each surviving token gets the word2vec keep probability
//
//	keep(t) = (sqrt(cnt/(sample*total)) + 1) * (sample*total)/cnt
//
// clamped to 1; when sample == 0 subsampling is disabled and keep is 1.
func BuildVocab(data *Corpus, minCount uint32, sample float32) (*Vocabulary, error) {
	counts := make(map[string]uint32)
	for _, doc := range data.Docs {
		for _, tok := range doc.Tokens {
			counts[tok] += 1
		}
	}

	var entries []*Entry
	for tok, cnt := range counts {
		if cnt < minCount {
			continue
		}
		entries = append(entries, &Entry{Token: tok, Count: cnt})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("corpus: no token survived min_count=%d", minCount)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Token < entries[j].Token
	})

	vocab := &Vocabulary{
		Entries: entries,
		ids:     make(map[string]uint32, len(entries)),
	}
	for i, e := range entries {
		e.Index = uint32(i)
		vocab.ids[e.Token] = uint32(i)
		vocab.Total += uint64(e.Count)
	}

	for _, e := range entries {
		e.Keep = keepProb(e.Count, vocab.Total, sample)
	}

	log.Infof("vocabulary size %d, corpus size %d", len(entries), vocab.Total)
	return vocab, nil
}

// NewVocabularyFromEntries rebuilds a vocabulary from persisted
// entries, assumed to be in index order. Keep probabilities are
// recomputed from the sample threshold.
func NewVocabularyFromEntries(entries []*Entry, sample float32) *Vocabulary {
	vocab := &Vocabulary{
		Entries: entries,
		ids:     make(map[string]uint32, len(entries)),
	}
	for i, e := range entries {
		e.Index = uint32(i)
		vocab.ids[e.Token] = uint32(i)
		vocab.Total += uint64(e.Count)
	}
	for _, e := range entries {
		e.Keep = keepProb(e.Count, vocab.Total, sample)
	}
	return vocab
}

func keepProb(cnt uint32, total uint64, sample float32) float32 {
	if sample <= 0 {
		return 1
	}
	st := float64(sample) * float64(total)
	p := (math.Sqrt(float64(cnt)/st) + 1) * st / float64(cnt)
	if p > 1 {
		p = 1
	}
	return float32(p)
}

func (this *Vocabulary) Size() uint32 {
	return uint32(len(this.Entries))
}

// Id returns the dense index of token, if present.
func (this *Vocabulary) Id(token string) (uint32, bool) {
	id, ok := this.ids[token]
	return id, ok
}

// Indices maps a token sequence to vocabulary indices, dropping
// out-of-vocabulary tokens.
func (this *Vocabulary) Indices(tokens []string) []uint32 {
	out := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		if id, ok := this.ids[tok]; ok {
			out = append(out, id)
		}
	}
	return out
}
