package model

import (
	"math/rand"

	"github.com/bobonovski/gopv/corpus"
	"github.com/bobonovski/gopv/matrix"
)

// Weights is the single owner of mutable model state: the word,
// document and output-layer matrices. Word and document rows share
// dimensionality D; the output matrix is V x D for negative sampling,
// (V-1) x D for hierarchical softmax (huffman inner nodes) and widens
// to the concatenated input width in dm concat mode. Only the trainer
// mutates these matrices, plus the inference engine for a single
// appended document row.
type Weights struct {
	Dim  uint32
	Word *matrix.Float32Matrix
	Doc  *matrix.Float32Matrix
	Out  *matrix.Float32Matrix
}

// NewWeights allocates and initializes the weight matrices: word and
// document vectors get small uniform values scaled by 1/D drawn from
// rng, output vectors start at zero.
func NewWeights(cfg *Config, vocab *corpus.Vocabulary, docRows uint32, rng *rand.Rand) (*Weights, error) {
	if vocab.Size() == 0 {
		return nil, configErrorf("empty vocabulary")
	}
	if docRows == 0 {
		return nil, configErrorf("no document tags")
	}

	outRows := vocab.Size()
	if cfg.HS {
		outRows = vocab.InnerNodes()
		if outRows == 0 {
			outRows = 1 // single-word vocabulary still needs a row
		}
	}

	w := &Weights{
		Dim:  cfg.Dim,
		Word: matrix.NewFloat32Matrix(vocab.Size(), cfg.Dim),
		Doc:  matrix.NewFloat32Matrix(docRows, cfg.Dim),
		Out:  matrix.NewFloat32Matrix(outRows, cfg.InputDim()),
	}
	randomizeMatrix(w.Word, cfg.Dim, rng)
	randomizeMatrix(w.Doc, cfg.Dim, rng)
	return w, nil
}

func randomizeMatrix(m *matrix.Float32Matrix, dim uint32, rng *rand.Rand) {
	r, c := m.Shape()
	for i := uint32(0); i < r; i += 1 {
		row := m.Row(i)
		for j := uint32(0); j < c; j += 1 {
			row[j] = (rng.Float32() - 0.5) / float32(dim)
		}
	}
}

// RandomRow draws a fresh document vector for inference with the same
// distribution as the initial document rows.
func (this *Weights) RandomRow(rng *rand.Rand) []float32 {
	row := make([]float32, this.Dim)
	for j := range row {
		row[j] = (rng.Float32() - 0.5) / float32(this.Dim)
	}
	return row
}
