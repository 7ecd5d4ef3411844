// Package index ranks stored vectors by cosine similarity over a named
// namespace (word vectors, document vectors). Normalized copies are
// computed lazily and cached until the underlying matrix changes.
package index

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/bobonovski/gopv/matrix"
	"github.com/bobonovski/gopv/util"
)

// NotFoundError reports a query for an id absent from a namespace.
// Recoverable, the caller decides.
type NotFoundError struct {
	Namespace string
	Key       string
}

func (e *NotFoundError) Error() string {
	return "index: " + e.Key + " not found in namespace " + e.Namespace
}

// Match is one ranked result.
type Match struct {
	Id  string
	Sim float32
}

// Index serves cosine nearest-neighbor queries over one namespace. The
// i-th id owns row i of the backing matrix; rows beyond len(ids)
// (appended by inference) are not part of the namespace and are
// ignored. Safe for concurrent queries; the normalization cache is
// keyed on the matrix version and rebuilt when the trainer bumps it.
type Index struct {
	namespace string
	ids       []string
	rows      map[string]uint32
	mat       *matrix.Float32Matrix

	mu    sync.Mutex
	norms []float32
	seen  uint64
	fresh bool
}

func New(namespace string, ids []string, mat *matrix.Float32Matrix) *Index {
	rows := make(map[string]uint32, len(ids))
	for i, id := range ids {
		rows[id] = uint32(i)
	}
	return &Index{
		namespace: namespace,
		ids:       ids,
		rows:      rows,
		mat:       mat,
	}
}

func (this *Index) Namespace() string {
	return this.namespace
}

func (this *Index) Len() int {
	return len(this.ids)
}

// Vector returns a copy of the stored (unnormalized) vector for id.
func (this *Index) Vector(id string) ([]float32, error) {
	r, ok := this.rows[id]
	if !ok {
		return nil, &NotFoundError{Namespace: this.namespace, Key: id}
	}
	return this.mat.RowCopy(r), nil
}

// MostSimilar ranks every id in the namespace against the query vector
// and returns the topn best matches, descending by cosine similarity
// with ties broken by ascending id. topn may equal the namespace size
// for a full ranking; larger values are clamped.
func (this *Index) MostSimilar(query []float32, topn int) ([]Match, error) {
	_, dim := this.mat.Shape()
	if uint32(len(query)) != dim {
		return nil, errors.Errorf("index: query dimensionality %d, namespace %s has %d",
			len(query), this.namespace, dim)
	}
	if topn <= 0 {
		return nil, nil
	}
	if topn > len(this.ids) {
		topn = len(this.ids)
	}

	norms := this.normalized()

	q := make([]float32, len(query))
	copy(q, query)
	if n := util.Nrm2(q); n > 0 {
		util.Scal(1/n, q)
	}

	matches := make([]Match, len(this.ids))
	for i := range this.ids {
		row := norms[uint32(i)*dim : uint32(i+1)*dim]
		matches[i] = Match{Id: this.ids[i], Sim: util.Dot(q, row)}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Sim != matches[j].Sim {
			return matches[i].Sim > matches[j].Sim
		}
		return matches[i].Id < matches[j].Id
	})
	return matches[:topn], nil
}

// MostSimilarId ranks against the stored vector of id. The id itself
// stays in the ranking (its self similarity is exactly 1).
func (this *Index) MostSimilarId(id string, topn int) ([]Match, error) {
	r, ok := this.rows[id]
	if !ok {
		return nil, &NotFoundError{Namespace: this.namespace, Key: id}
	}
	return this.MostSimilar(this.mat.RowCopy(r), topn)
}

// normalized returns the cached L2-normalized rows, rebuilding the
// cache when the namespace has mutated since it was computed. Never
// called from the training hot loop.
func (this *Index) normalized() []float32 {
	this.mu.Lock()
	defer this.mu.Unlock()

	version := this.mat.Version()
	if this.fresh && this.seen == version {
		return this.norms
	}

	_, dim := this.mat.Shape()
	if this.norms == nil {
		this.norms = make([]float32, uint32(len(this.ids))*dim)
	}
	for i := range this.ids {
		row := this.norms[uint32(i)*dim : uint32(i+1)*dim]
		copy(row, this.mat.Row(uint32(i)))
		if n := util.Nrm2(row); n > 0 {
			util.Scal(1/n, row)
		}
	}
	this.seen = version
	this.fresh = true
	return this.norms
}
