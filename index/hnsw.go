package index

import (
	"github.com/coder/hnsw"

	"github.com/bobonovski/gopv/matrix"
	"github.com/bobonovski/gopv/util"
)

// Approx is an approximate companion to Index built on an HNSW graph,
// for namespaces too large to rank exhaustively per query. Recall is
// approximate; Index remains the exact surface.
type Approx struct {
	namespace string
	graph     *hnsw.Graph[string]
}

// NewApprox snapshots the namespace into an HNSW graph. The graph does
// not follow later weight mutations; rebuild after training.
func NewApprox(namespace string, ids []string, mat *matrix.Float32Matrix) *Approx {
	graph := hnsw.NewGraph[string]()
	graph.M = 16
	graph.Ml = 0.25
	graph.EfSearch = 20

	for i, id := range ids {
		vec := mat.RowCopy(uint32(i))
		if n := util.Nrm2(vec); n > 0 {
			util.Scal(1/n, vec)
		}
		graph.Add(hnsw.MakeNode(id, vec))
	}
	return &Approx{namespace: namespace, graph: graph}
}

// Search returns up to topn approximate nearest neighbors of the query
// vector with their cosine similarities, descending.
func (this *Approx) Search(query []float32, topn int) []Match {
	q := make([]float32, len(query))
	copy(q, query)
	if n := util.Nrm2(q); n > 0 {
		util.Scal(1/n, q)
	}

	neighbors := this.graph.Search(q, topn)
	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		matches = append(matches, Match{Id: n.Key, Sim: util.Dot(q, n.Value)})
	}
	return matches
}
