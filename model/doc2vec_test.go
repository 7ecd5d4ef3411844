package model

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobonovski/gopv/corpus"
	"github.com/bobonovski/gopv/index"
)

func threeDocCorpus() *corpus.Corpus {
	return &corpus.Corpus{Docs: []corpus.Document{
		{Tokens: []string{"the", "cat", "sat", "down"}, Tags: []string{"d0"}},
		{Tokens: []string{"the", "dog", "ran", "away"}, Tags: []string{"d1"}},
		{Tokens: []string{"a", "bird", "flew", "home"}, Tags: []string{"d2"}},
	}}
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Dim = 8
	cfg.MinCount = 1
	cfg.Epochs = 5
	cfg.Negative = 2
	cfg.Window = 2
	cfg.Workers = 1
	cfg.Seed = 42
	return cfg
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Dim = 0
	_, err := New(cfg, threeDocCorpus())
	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)

	cfg = smallConfig()
	cfg.HS = true // together with negative sampling
	_, err = New(cfg, threeDocCorpus())
	assert.ErrorAs(t, err, &confErr)

	cfg = smallConfig()
	cfg.MinCount = 100
	_, err = New(cfg, threeDocCorpus())
	assert.ErrorAs(t, err, &confErr)
}

// three short documents, dbow, negative sampling: the vocabulary holds
// every distinct token, the document matrix has one row per tag and a
// document queried by its own stored vector ranks itself first
func TestThreeDocumentScenario(t *testing.T) {
	m, err := New(smallConfig(), threeDocCorpus())
	assert.NoError(t, err)

	assert.Equal(t, uint32(11), m.Vocab().Size())
	nrow, ncol := m.Weights().Doc.Shape()
	assert.Equal(t, uint32(3), nrow)
	assert.Equal(t, uint32(8), ncol)

	assert.NoError(t, m.Train())

	matches, err := m.MostSimilar("d0", NamespaceDoc, 3)
	assert.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.Equal(t, "d0", matches[0].Id)
	assert.InDelta(t, 1.0, matches[0].Sim, 1e-5)
}

func TestTrainDeterministicSingleWorker(t *testing.T) {
	run := func() *Doc2Vec {
		m, err := New(smallConfig(), threeDocCorpus())
		assert.NoError(t, err)
		assert.NoError(t, m.Train())
		return m
	}
	m1 := run()
	m2 := run()

	assertMatricesEqual(t, m1, m2)
}

func assertMatricesEqual(t *testing.T, m1, m2 *Doc2Vec) {
	wr, _ := m1.Weights().Word.Shape()
	for r := uint32(0); r < wr; r += 1 {
		assert.Equal(t, m1.Weights().Word.RowCopy(r), m2.Weights().Word.RowCopy(r))
	}
	dr, _ := m1.Weights().Doc.Shape()
	for r := uint32(0); r < dr; r += 1 {
		assert.Equal(t, m1.Weights().Doc.RowCopy(r), m2.Weights().Doc.RowCopy(r))
	}
	or, _ := m1.Weights().Out.Shape()
	for r := uint32(0); r < or; r += 1 {
		assert.Equal(t, m1.Weights().Out.RowCopy(r), m2.Weights().Out.RowCopy(r))
	}
}

func assertAllFinite(t *testing.T, m *Doc2Vec) {
	check := func(mat interface {
		Shape() (uint32, uint32)
		RowCopy(uint32) []float32
	}) {
		nrow, ncol := mat.Shape()
		for r := uint32(0); r < nrow; r += 1 {
			row := mat.RowCopy(r)
			assert.Equal(t, int(ncol), len(row))
			for _, v := range row {
				assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
			}
		}
	}
	check(m.Weights().Word)
	check(m.Weights().Doc)
	check(m.Weights().Out)
}

func TestAllModesProduceFiniteVectors(t *testing.T) {
	for _, mode := range []Mode{PVDBOW, PVDMMean, PVDMConcat} {
		for _, hs := range []bool{false, true} {
			name := mode.String()
			if hs {
				name += "+hs"
			}
			t.Run(name, func(t *testing.T) {
				cfg := smallConfig()
				cfg.Mode = mode
				cfg.HS = hs
				if hs {
					cfg.Negative = 0
				}
				m, err := New(cfg, threeDocCorpus())
				assert.NoError(t, err)
				assert.NoError(t, m.Train())
				assertAllFinite(t, m)
			})
		}
	}
}

func TestTrainMultiWorker(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 4
	m, err := New(cfg, clusteredCorpus(60, 3))
	assert.NoError(t, err)
	assert.NoError(t, m.Train())
	assertAllFinite(t, m)
}

func TestEmptyDocumentSkipped(t *testing.T) {
	data := threeDocCorpus()
	data.Docs = append(data.Docs, corpus.Document{
		Tokens: []string{"never", "seen"}, Tags: []string{"d3"},
	})
	cfg := smallConfig()
	cfg.MinCount = 2 // only "the" survives, d3 becomes all-OOV

	m, err := New(cfg, data)
	assert.NoError(t, err)
	assert.NoError(t, m.Train())
	assert.Greater(t, m.SkippedDocs(), uint64(0))
}

func TestStopBeforeFirstEpoch(t *testing.T) {
	m, err := New(smallConfig(), threeDocCorpus())
	assert.NoError(t, err)

	m.Stop()
	assert.NoError(t, m.Train())
	// undertrained but valid
	assertAllFinite(t, m)
}

func TestVectorFor(t *testing.T) {
	m, err := New(smallConfig(), threeDocCorpus())
	assert.NoError(t, err)

	vec, err := m.VectorFor("d1")
	assert.NoError(t, err)
	assert.Len(t, vec, 8)

	vec, err = m.VectorFor("cat")
	assert.NoError(t, err)
	assert.Len(t, vec, 8)

	_, err = m.VectorFor("missing")
	var notFound *index.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMostSimilarUnknown(t *testing.T) {
	m, err := New(smallConfig(), threeDocCorpus())
	assert.NoError(t, err)

	var notFound *index.NotFoundError
	_, err = m.MostSimilar("missing", NamespaceDoc, 3)
	assert.ErrorAs(t, err, &notFound)

	_, err = m.MostSimilar("d0", "paragraph", 3)
	assert.ErrorAs(t, err, &notFound)
}

func TestInferMalformedInput(t *testing.T) {
	m, err := New(smallConfig(), threeDocCorpus())
	assert.NoError(t, err)
	assert.NoError(t, m.Train())

	var malformed *MalformedInputError
	_, err = m.Infer([]string{"totally", "unknown"}, 5, 1)
	assert.ErrorAs(t, err, &malformed)
	_, err = m.Infer(nil, 5, 1)
	assert.ErrorAs(t, err, &malformed)
}

func TestInferDeterministic(t *testing.T) {
	m, err := New(smallConfig(), threeDocCorpus())
	assert.NoError(t, err)
	assert.NoError(t, m.Train())

	v1, err := m.Infer([]string{"the", "cat", "sat", "down"}, 5, 7)
	assert.NoError(t, err)
	v2, err := m.Infer([]string{"the", "cat", "sat", "down"}, 5, 7)
	assert.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestInferAppendsDocRow(t *testing.T) {
	m, err := New(smallConfig(), threeDocCorpus())
	assert.NoError(t, err)
	assert.NoError(t, m.Train())

	before, _ := m.Weights().Doc.Shape()
	_, err = m.Infer([]string{"the", "cat"}, 5, 7)
	assert.NoError(t, err)
	after, _ := m.Weights().Doc.Shape()
	assert.Equal(t, before+1, after)

	// the appended row does not join the document namespace
	assert.Equal(t, 3, m.DocIndex().Len())
}

// clusteredCorpus builds docs/cluster documents per topic cluster with
// disjoint topic vocabularies.
func clusteredCorpus(docs, clusters int) *corpus.Corpus {
	rng := rand.New(rand.NewSource(99))
	words := make([][]string, clusters)
	for c := range words {
		for w := 0; w < 10; w += 1 {
			words[c] = append(words[c], fmt.Sprintf("t%dw%d", c, w))
		}
	}
	data := &corpus.Corpus{}
	for d := 0; d < docs; d += 1 {
		c := d % clusters
		tokens := make([]string, 0, 20)
		for i := 0; i < 20; i += 1 {
			tokens = append(tokens, words[c][rng.Intn(len(words[c]))])
		}
		data.Docs = append(data.Docs, corpus.Document{
			Tokens: tokens,
			Tags:   []string{fmt.Sprintf("d%d", d)},
		})
	}
	return data
}

// inferring a vector for a document seen during training should land
// in that document's topic cluster
func TestInferMatchesTrainingCluster(t *testing.T) {
	if testing.Short() {
		t.Skip("trains a medium corpus")
	}
	cfg := DefaultConfig()
	cfg.Mode = PVDBOW
	cfg.Dim = 24
	cfg.MinCount = 1
	cfg.Epochs = 20
	cfg.Negative = 5
	cfg.Workers = 1
	cfg.Seed = 3

	data := clusteredCorpus(300, 3)
	m, err := New(cfg, data)
	assert.NoError(t, err)
	assert.NoError(t, m.Train())

	vec, err := m.Infer(data.Docs[0].Tokens, 20, 11)
	assert.NoError(t, err)

	matches, err := m.MostSimilarVector(vec, NamespaceDoc, 3)
	assert.NoError(t, err)
	assert.Len(t, matches, 3)

	// documents cycle through clusters, d0's cluster holds every d
	// with d % 3 == 0
	for _, match := range matches {
		var d int
		_, err := fmt.Sscanf(match.Id, "d%d", &d)
		assert.NoError(t, err)
		assert.Equal(t, 0, d%3, "neighbor %s is from another cluster", match.Id)
		assert.Greater(t, match.Sim, float32(0.3))
	}
}
