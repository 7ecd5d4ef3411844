package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobonovski/gopv/matrix"
)

func testIndex() (*Index, *matrix.Float32Matrix) {
	m := matrix.NewFloat32Matrix(4, 2)
	m.SetRow(0, []float32{1, 0})
	m.SetRow(1, []float32{0, 1})
	m.SetRow(2, []float32{1, 1})
	m.SetRow(3, []float32{1, 0}) // duplicate of row 0
	return New("doc", []string{"a", "b", "c", "d"}, m), m
}

func TestMostSimilarFullRanking(t *testing.T) {
	idx, _ := testIndex()

	matches, err := idx.MostSimilar([]float32{1, 0}, 4)
	assert.NoError(t, err)
	assert.Len(t, matches, 4)

	// every id exactly once
	seen := make(map[string]bool)
	for _, match := range matches {
		assert.False(t, seen[match.Id])
		seen[match.Id] = true
	}
	assert.Len(t, seen, 4)

	// descending similarity, ties by ascending id: a and d share a
	// vector and both beat c, which beats b
	assert.Equal(t, "a", matches[0].Id)
	assert.Equal(t, "d", matches[1].Id)
	assert.Equal(t, "c", matches[2].Id)
	assert.Equal(t, "b", matches[3].Id)
	for i := 1; i < len(matches); i += 1 {
		assert.GreaterOrEqual(t, matches[i-1].Sim, matches[i].Sim)
	}
}

func TestMostSimilarTopNClamped(t *testing.T) {
	idx, _ := testIndex()

	matches, err := idx.MostSimilar([]float32{1, 0}, 100)
	assert.NoError(t, err)
	assert.Len(t, matches, 4)

	matches, err = idx.MostSimilar([]float32{1, 0}, 2)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMostSimilarIdSelf(t *testing.T) {
	idx, _ := testIndex()

	matches, err := idx.MostSimilarId("c", 1)
	assert.NoError(t, err)
	assert.Equal(t, "c", matches[0].Id)
	assert.InDelta(t, 1.0, matches[0].Sim, 1e-5)
}

func TestMostSimilarIdNotFound(t *testing.T) {
	idx, _ := testIndex()

	_, err := idx.MostSimilarId("zzz", 1)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "doc", notFound.Namespace)
	assert.Equal(t, "zzz", notFound.Key)
}

func TestVectorCopy(t *testing.T) {
	idx, m := testIndex()

	vec, err := idx.Vector("b")
	assert.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vec)

	vec[0] = 99 // copies do not alias the store
	assert.Equal(t, float32(0), m.Get(1, 0))
}

func TestDimensionalityMismatch(t *testing.T) {
	idx, _ := testIndex()

	_, err := idx.MostSimilar([]float32{1, 0, 0}, 4)
	assert.Error(t, err)
}

func TestNormalizationCacheInvalidation(t *testing.T) {
	idx, m := testIndex()

	matches, err := idx.MostSimilar([]float32{0, 1}, 1)
	assert.NoError(t, err)
	assert.Equal(t, "b", matches[0].Id)

	// repoint row 0 at the query direction and bump the version
	m.SetRow(0, []float32{0, 5})
	m.Bump()

	matches, err = idx.MostSimilar([]float32{0, 1}, 2)
	assert.NoError(t, err)
	assert.Equal(t, "a", matches[0].Id)
	assert.Equal(t, "b", matches[1].Id)
}

func TestIgnoresAppendedRows(t *testing.T) {
	idx, m := testIndex()
	m.AppendRow([]float32{9, 9})

	matches, err := idx.MostSimilar([]float32{1, 1}, 100)
	assert.NoError(t, err)
	assert.Len(t, matches, 4)
	assert.Equal(t, 4, idx.Len())
}

func TestApproxSearch(t *testing.T) {
	_, m := testIndex()
	approx := NewApprox("doc", []string{"a", "b", "c", "d"}, m)

	matches := approx.Search([]float32{0, 1}, 2)
	assert.NotEmpty(t, matches)
	assert.Equal(t, "b", matches[0].Id)
	assert.InDelta(t, 1.0, matches[0].Sim, 1e-5)
}
