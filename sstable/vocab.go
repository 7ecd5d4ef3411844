package sstable

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/bobonovski/gopv/corpus"
)

// WriteVocab serializes vocabulary entries in index order, one line
// per token: token, count, huffman code bits and inner-node path. The
// code and path columns are empty for negative-sampling-only models.
func WriteVocab(fn string, vocab *corpus.Vocabulary) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrap(err, "sstable: create")
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%d\n", len(vocab.Entries))
	for _, e := range vocab.Entries {
		var code strings.Builder
		for _, b := range e.Code {
			code.WriteByte('0' + b)
		}
		points := make([]string, len(e.Point))
		for i, p := range e.Point {
			points[i] = strconv.FormatUint(uint64(p), 10)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Token, e.Count, code.String(), strings.Join(points, ","))
	}
	return errors.Wrap(w.Flush(), "sstable: flush")
}

// ReadVocab deserializes a vocabulary file. Entry order in the file is
// index order; keep probabilities are recomputed by the caller from
// the persisted sample threshold.
func ReadVocab(fn string) ([]*corpus.Entry, error) {
	file, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "sstable: open")
	}
	defer file.Close()

	var entries []*corpus.Entry
	declared := -1

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		txt := scanner.Text()
		if declared < 0 {
			n, err := strconv.Atoi(txt)
			if err != nil {
				return nil, errors.Wrapf(err, "sstable: %s corrupted, bad entry count", fn)
			}
			declared = n
			continue
		}

		cols := strings.Split(txt, "\t")
		if len(cols) != 4 {
			return nil, errors.Errorf("sstable: %s corrupted, bad vocab line: %s", fn, txt)
		}
		cnt, err := strconv.ParseUint(cols[1], 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "sstable: count")
		}
		e := &corpus.Entry{
			Token: cols[0],
			Count: uint32(cnt),
			Index: uint32(len(entries)),
		}
		for i := 0; i < len(cols[2]); i += 1 {
			e.Code = append(e.Code, cols[2][i]-'0')
		}
		if cols[3] != "" {
			for _, p := range strings.Split(cols[3], ",") {
				node, err := strconv.ParseUint(p, 10, 32)
				if err != nil {
					return nil, errors.Wrap(err, "sstable: huffman path")
				}
				e.Point = append(e.Point, uint32(node))
			}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "sstable: scan")
	}
	if declared < 0 || len(entries) != declared {
		return nil, errors.Errorf("sstable: %s truncated, found %d of %d entries",
			fn, len(entries), declared)
	}
	return entries, nil
}
