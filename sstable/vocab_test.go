package sstable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobonovski/gopv/corpus"
)

func TestVocabRoundTrip(t *testing.T) {
	data := &corpus.Corpus{Docs: []corpus.Document{
		{Tokens: []string{"a", "a", "a", "b", "b", "c"}, Tags: []string{"d0"}},
	}}
	vocab, err := corpus.BuildVocab(data, 1, 0)
	assert.NoError(t, err)
	vocab.BuildHuffman()

	fn := filepath.Join(t.TempDir(), "vocab")
	assert.NoError(t, WriteVocab(fn, vocab))

	entries, err := ReadVocab(fn)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
	for i, e := range vocab.Entries {
		assert.Equal(t, e.Token, entries[i].Token)
		assert.Equal(t, e.Count, entries[i].Count)
		assert.Equal(t, e.Index, entries[i].Index)
		assert.Equal(t, e.Code, entries[i].Code)
		assert.Equal(t, e.Point, entries[i].Point)
	}
}

func TestVocabRoundTripWithoutHuffman(t *testing.T) {
	data := &corpus.Corpus{Docs: []corpus.Document{
		{Tokens: []string{"a", "b"}, Tags: []string{"d0"}},
	}}
	vocab, err := corpus.BuildVocab(data, 1, 0)
	assert.NoError(t, err)

	fn := filepath.Join(t.TempDir(), "vocab")
	assert.NoError(t, WriteVocab(fn, vocab))

	entries, err := ReadVocab(fn)
	assert.NoError(t, err)
	for _, e := range entries {
		assert.Empty(t, e.Code)
		assert.Empty(t, e.Point)
	}
}

func TestVocabReadTruncated(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "vocab")
	assert.NoError(t, os.WriteFile(fn, []byte("5\na\t3\t\t\n"), 0644))

	_, err := ReadVocab(fn)
	assert.Error(t, err)
}
