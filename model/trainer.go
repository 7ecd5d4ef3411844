package model

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/golang/glog"

	"github.com/bobonovski/gopv/corpus"
	"github.com/bobonovski/gopv/util"
)

// Trainer runs asynchronous SGD over epochs x shuffled documents x
// positions. Worker goroutines process disjoint documents (static
// sharding by position in the shuffled order modulo worker count) and
// share the weight store under the per-row locking discipline: output,
// word and document rows are locked for the read-modify-write of an
// update, while reads that assemble input features go unlocked. Two
// workers touching the same word from different documents may
// interleave; that is the standard asynchronous-SGD trade of
// bit-for-bit reproducibility for throughput.
type Trainer struct {
	cfg     *Config
	vocab   *corpus.Vocabulary
	weights *Weights
	table   *corpus.UnigramTable
	docs    []docRecord
	ext     extractor

	totalWords uint64        // trainable words per epoch
	processed  atomic.Uint64 // drives the linear alpha decay
	skipped    atomic.Uint64
	stopFlag   atomic.Bool
}

func newTrainer(cfg *Config, vocab *corpus.Vocabulary, weights *Weights,
	table *corpus.UnigramTable, docs []docRecord) *Trainer {
	t := &Trainer{
		cfg:     cfg,
		vocab:   vocab,
		weights: weights,
		table:   table,
		docs:    docs,
		ext:     extractor{mode: cfg.Mode, window: cfg.Window, vocab: vocab},
	}
	for _, d := range docs {
		t.totalWords += uint64(len(d.words))
	}
	return t
}

// Stop requests a clean stop at the next epoch boundary. The current
// epoch runs to completion so the weight store stays valid.
func (this *Trainer) Stop() {
	this.stopFlag.Store(true)
}

// Skipped counts documents skipped for having no trainable tokens.
func (this *Trainer) Skipped() uint64 {
	return this.skipped.Load()
}

func (this *Trainer) Run() error {
	if this.vocab.Size() == 0 {
		return configErrorf("empty vocabulary")
	}
	if this.weights.Dim == 0 {
		return configErrorf("dimensionality must be positive")
	}

	order := make([]int, len(this.docs))
	for i := range order {
		order[i] = i
	}
	shuffler := rand.New(rand.NewSource(this.cfg.Seed))

	for epoch := 0; epoch < this.cfg.Epochs; epoch += 1 {
		if this.stopFlag.Load() {
			log.Infof("stop requested, exiting after %d epochs", epoch)
			break
		}

		shuffler.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		start := time.Now()
		var wg sync.WaitGroup
		for w := 0; w < this.cfg.Workers; w += 1 {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				this.runWorker(worker, epoch, order)
			}(w)
		}
		// epoch barrier: alpha decay and progress are epoch scoped
		wg.Wait()

		this.weights.Word.Bump()
		this.weights.Doc.Bump()
		this.weights.Out.Bump()

		elapsed := time.Since(start).Seconds()
		if elapsed > 0 {
			log.Infof("epoch %d, alpha %.5f, %.0f words/sec",
				epoch, this.alpha(), float64(this.totalWords)/elapsed)
		}
	}
	return nil
}

func (this *Trainer) runWorker(worker, epoch int, order []int) {
	seed := this.cfg.Seed + int64(worker) + int64(epoch)*int64(this.cfg.Workers)
	rng := rand.New(rand.NewSource(seed))
	scratch := newScratch(this.cfg)

	for i := worker; i < len(order); i += this.cfg.Workers {
		doc := this.docs[order[i]]
		if len(doc.words) == 0 {
			this.skipped.Add(1)
			continue
		}
		this.processed.Add(uint64(len(doc.words)))
		pass := &docPass{
			words: doc.words,
			tags:  doc.tags,
			alpha: this.alpha(),
			rng:   rng,
		}
		this.trainDoc(pass, scratch)
	}
}

// alpha decays linearly from Alpha to MinAlpha over the total planned
// number of trained words across all epochs.
func (this *Trainer) alpha() float32 {
	planned := this.totalWords * uint64(this.cfg.Epochs)
	if planned == 0 {
		return this.cfg.Alpha
	}
	progress := float32(float64(this.processed.Load()) / float64(planned))
	a := this.cfg.Alpha - (this.cfg.Alpha-this.cfg.MinAlpha)*progress
	if a < this.cfg.MinAlpha {
		a = this.cfg.MinAlpha
	}
	return a
}

// docPass describes one SGD pass over a single document. During
// training tags holds the document matrix rows to update; during
// inference tags is nil and dv is the lone document vector being
// estimated, with word and output vectors frozen.
type docPass struct {
	words  []uint32
	tags   []uint32
	dv     []float32
	alpha  float32
	rng    *rand.Rand
	frozen bool
}

// scratch is per-worker reusable buffer space.
type scratch struct {
	input []float32
	grad  []float32
	wgrad []float32
	keep  []bool
	ctx   []uint32
}

func newScratch(cfg *Config) *scratch {
	return &scratch{
		input: make([]float32, cfg.InputDim()),
		grad:  make([]float32, cfg.InputDim()),
		wgrad: make([]float32, cfg.Dim),
	}
}

func (this *Trainer) trainDoc(p *docPass, s *scratch) {
	switch this.cfg.Mode {
	case PVDBOW:
		this.passDBOW(p, s)
	case PVDMMean:
		this.passDMMean(p, s)
	case PVDMConcat:
		this.passDMConcat(p, s)
	}
}

// passDBOW trains the document vector against len(words) targets drawn
// uniformly from the document; word vectors are untouched unless
// DBOWTrainWords adds the parallel skip-gram objective.
func (this *Trainer) passDBOW(p *docPass, s *scratch) {
	dim := this.weights.Dim
	for range p.words {
		target := p.words[p.rng.Intn(len(p.words))]
		p.eachDocVec(this.weights, func(row uint32, dv []float32) {
			grad := s.grad[:dim]
			util.Zero(grad)
			this.sgdStep(dv, target, grad, p.alpha, p.rng, !p.frozen)
			p.applyDocGrad(this.weights, row, dv, grad)
		})
	}

	if this.cfg.DBOWTrainWords && !p.frozen {
		this.passSkipGram(p, s)
	}
}

// passSkipGram is the auxiliary word-vector objective of DBOW mode:
// every context word predicts the center word.
func (this *Trainer) passSkipGram(p *docPass, s *scratch) {
	s.keep = this.ext.keepMask(p.words, p.rng, s.keep)
	for i := range p.words {
		s.ctx = this.ext.meanContext(p.words, i, s.keep, s.ctx)
		for _, w := range s.ctx {
			in := this.weights.Word.Row(w)
			grad := s.wgrad
			util.Zero(grad)
			this.sgdStep(in, p.words[i], grad, p.alpha, p.rng, true)
			this.weights.Word.LockRow(w)
			util.Axpy(1, grad, in)
			this.weights.Word.UnlockRow(w)
		}
	}
}

// passDMMean predicts each center word from the elementwise mean of
// the document vector(s) and whatever context survives subsampling and
// edge truncation. The accumulated gradient is shared out equally
// among the contributing vectors.
func (this *Trainer) passDMMean(p *docPass, s *scratch) {
	dim := this.weights.Dim
	s.keep = this.ext.keepMask(p.words, p.rng, s.keep)

	for i := range p.words {
		s.ctx = this.ext.meanContext(p.words, i, s.keep, s.ctx)

		input := s.input[:dim]
		util.Zero(input)
		count := float32(0)
		p.eachDocVec(this.weights, func(_ uint32, dv []float32) {
			util.Axpy(1, dv, input)
			count += 1
		})
		for _, w := range s.ctx {
			util.Axpy(1, this.weights.Word.Row(w), input)
			count += 1
		}
		util.Scal(1/count, input)

		grad := s.grad[:dim]
		util.Zero(grad)
		this.sgdStep(input, p.words[i], grad, p.alpha, p.rng, !p.frozen)

		// equal fractional share per contributing vector
		util.Scal(1/count, grad)
		p.eachDocVec(this.weights, func(row uint32, dv []float32) {
			p.applyDocGrad(this.weights, row, dv, grad)
		})
		if !p.frozen {
			for _, w := range s.ctx {
				this.weights.Word.LockRow(w)
				util.Axpy(1, grad, this.weights.Word.Row(w))
				this.weights.Word.UnlockRow(w)
			}
		}
	}
}

// passDMConcat predicts each center word from the document vector
// concatenated with the context word vectors at fixed offsets. The
// position is skipped when the fixed-width window cannot be filled.
// Concatenation uses a single document vector (the first tag).
func (this *Trainer) passDMConcat(p *docPass, s *scratch) {
	dim := this.weights.Dim
	s.keep = this.ext.keepMask(p.words, p.rng, s.keep)

	for i := range p.words {
		var ok bool
		s.ctx, ok = this.ext.concatContext(p.words, i, s.keep, s.ctx)
		if !ok {
			continue
		}

		docRow, dv := p.firstDocVec(this.weights)
		copy(s.input[:dim], dv)
		for k, w := range s.ctx {
			copy(s.input[uint32(k+1)*dim:uint32(k+2)*dim], this.weights.Word.Row(w))
		}

		util.Zero(s.grad)
		this.sgdStep(s.input, p.words[i], s.grad, p.alpha, p.rng, !p.frozen)

		p.applyDocGrad(this.weights, docRow, dv, s.grad[:dim])
		if !p.frozen {
			for k, w := range s.ctx {
				this.weights.Word.LockRow(w)
				util.Axpy(1, s.grad[uint32(k+1)*dim:uint32(k+2)*dim], this.weights.Word.Row(w))
				this.weights.Word.UnlockRow(w)
			}
		}
	}
}

// sgdStep runs one output-layer update for an (input, target) pair and
// accumulates the input gradient into grad. With updateOut false the
// output vectors are left untouched (inference).
func (this *Trainer) sgdStep(input []float32, target uint32, grad []float32,
	alpha float32, rng *rand.Rand, updateOut bool) {
	if this.cfg.HS {
		this.hsStep(input, target, grad, alpha, updateOut)
	} else {
		this.nsStep(input, target, grad, alpha, rng, updateOut)
	}
}

// hsStep walks the huffman path of the target: every inner node is a
// binary decision trained against the path bit.
func (this *Trainer) hsStep(input []float32, target uint32, grad []float32,
	alpha float32, updateOut bool) {
	entry := this.vocab.Entries[target]
	for d, node := range entry.Point {
		this.weights.Out.LockRow(node)
		out := this.weights.Out.Row(node)
		f := util.Dot(input, out)
		if f > -util.MaxExp && f < util.MaxExp {
			g := (1 - float32(entry.Code[d]) - util.Sigmoid(f)) * alpha
			util.Axpy(g, out, grad)
			if updateOut {
				util.Axpy(g, input, out)
			}
		}
		this.weights.Out.UnlockRow(node)
	}
}

// nsStep trains the true target plus Negative draws from the unigram
// table. A draw colliding with the true target is resampled up to
// NegRetry times, then accepted as a wasted sample.
func (this *Trainer) nsStep(input []float32, target uint32, grad []float32,
	alpha float32, rng *rand.Rand, updateOut bool) {
	for d := 0; d <= this.cfg.Negative; d += 1 {
		t := target
		label := float32(1)
		if d > 0 {
			t = this.table.Draw(rng)
			for retry := 0; t == target && retry < this.cfg.NegRetry; retry += 1 {
				t = this.table.Draw(rng)
			}
			label = 0
		}
		this.weights.Out.LockRow(t)
		out := this.weights.Out.Row(t)
		f := util.Dot(input, out)
		g := (label - util.Sigmoid(f)) * alpha
		util.Axpy(g, out, grad)
		if updateOut {
			util.Axpy(g, input, out)
		}
		this.weights.Out.UnlockRow(t)
	}
}

// eachDocVec visits every document vector taking part in the pass.
func (p *docPass) eachDocVec(w *Weights, fn func(row uint32, dv []float32)) {
	if p.tags == nil {
		fn(0, p.dv)
		return
	}
	for _, row := range p.tags {
		fn(row, w.Doc.Row(row))
	}
}

func (p *docPass) firstDocVec(w *Weights) (uint32, []float32) {
	if p.tags == nil {
		return 0, p.dv
	}
	return p.tags[0], w.Doc.Row(p.tags[0])
}

// applyDocGrad adds grad to a document vector, locking the row only
// when the vector lives in the shared document matrix.
func (p *docPass) applyDocGrad(w *Weights, row uint32, dv []float32, grad []float32) {
	if p.tags == nil {
		util.Axpy(1, grad, dv)
		return
	}
	w.Doc.LockRow(row)
	util.Axpy(1, grad, dv)
	w.Doc.UnlockRow(row)
}
