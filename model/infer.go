package model

import (
	"math/rand"
)

// Infer estimates a vector for an unseen document by running the
// training objective with word and output vectors frozen, updating
// only a freshly drawn document vector. The new vector is appended as
// a document matrix row (existing row indices stay valid) and a copy
// is returned. Deterministic for a fixed seed; epochs <= 0 uses the
// configured inference epoch count. Must not run concurrently with an
// active training pass.
func (this *Doc2Vec) Infer(tokens []string, epochs int, seed int64) ([]float32, error) {
	words := this.vocab.Indices(tokens)
	if len(words) == 0 {
		return nil, &MalformedInputError{Reason: "no in-vocabulary token to infer from"}
	}
	if epochs <= 0 {
		epochs = this.cfg.InferEpochs
	}

	rng := rand.New(rand.NewSource(seed))
	dv := this.weights.RandomRow(rng)

	scratch := newScratch(&this.cfg)
	for e := 0; e < epochs; e += 1 {
		// same linear decay shape as training, scoped to local epochs
		alpha := this.cfg.Alpha -
			(this.cfg.Alpha-this.cfg.MinAlpha)*float32(e)/float32(epochs)
		pass := &docPass{
			words:  words,
			dv:     dv,
			alpha:  alpha,
			rng:    rng,
			frozen: true,
		}
		this.trainer.trainDoc(pass, scratch)
	}

	this.weights.Doc.AppendRow(dv)

	out := make([]float32, len(dv))
	copy(out, dv)
	return out, nil
}
