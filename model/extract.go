package model

import (
	"math/rand"

	"github.com/bobonovski/gopv/corpus"
)

// docRecord is the transient per-document view the trainer works on:
// the in-vocabulary token indices and the document matrix rows of the
// document's tags. Records are rebuilt from the corpus at model
// construction and not retained beyond training.
type docRecord struct {
	words []uint32
	tags  []uint32
}

// extractor produces the input feature set for one training position
// according to the mode policy. Subsampling discards tokens from
// context consideration only, with a fresh draw per document per epoch.
type extractor struct {
	mode   Mode
	window int
	vocab  *corpus.Vocabulary
}

// keepMask draws the subsampling mask for one document. buf is reused
// across documents by the worker.
func (this *extractor) keepMask(words []uint32, rng *rand.Rand, buf []bool) []bool {
	buf = buf[:0]
	for _, w := range words {
		keep := this.vocab.Entries[w].Keep
		buf = append(buf, keep >= 1 || rng.Float32() < keep)
	}
	return buf
}

// meanContext collects the surviving context word indices in
// [i-window, i+window] excluding i, truncated at document edges.
func (this *extractor) meanContext(words []uint32, i int, keep []bool, buf []uint32) []uint32 {
	buf = buf[:0]
	lo := i - this.window
	if lo < 0 {
		lo = 0
	}
	hi := i + this.window
	if hi > len(words)-1 {
		hi = len(words) - 1
	}
	for j := lo; j <= hi; j += 1 {
		if j == i || !keep[j] {
			continue
		}
		buf = append(buf, words[j])
	}
	return buf
}

// concatContext collects exactly 2*window context word indices at
// fixed relative offsets (-window..-1, +1..+window). Concatenation
// needs a fixed-width input, so the position is skipped (ok == false)
// when a side is truncated by the document edge or loses a token to
// subsampling.
func (this *extractor) concatContext(words []uint32, i int, keep []bool, buf []uint32) ([]uint32, bool) {
	if i-this.window < 0 || i+this.window > len(words)-1 {
		return buf[:0], false
	}
	buf = buf[:0]
	for j := i - this.window; j <= i+this.window; j += 1 {
		if j == i {
			continue
		}
		if !keep[j] {
			return buf[:0], false
		}
		buf = append(buf, words[j])
	}
	return buf, true
}
