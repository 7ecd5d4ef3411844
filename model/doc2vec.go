package model

import (
	"math/rand"

	log "github.com/golang/glog"

	"github.com/bobonovski/gopv/corpus"
	"github.com/bobonovski/gopv/index"
)

// similarity namespaces of a trained model
const (
	NamespaceWord = "word"
	NamespaceDoc  = "doc"
)

// Doc2Vec learns fixed-size dense vectors for words and documents
// jointly (paragraph vectors). Construction builds the vocabulary and
// allocates the weight store; Train runs the SGD schedule; afterwards
// the model serves similarity queries and out-of-sample inference.
type Doc2Vec struct {
	cfg     Config
	vocab   *corpus.Vocabulary
	weights *Weights
	table   *corpus.UnigramTable
	trainer *Trainer

	tags    []string
	tagRows map[string]uint32

	words *index.Index
	docs  *index.Index
}

// New builds a Doc2Vec model over the corpus. It fails with a
// ConfigurationError before any training can start when the
// configuration is invalid or no token survives min_count.
func New(cfg Config, data *corpus.Corpus) (*Doc2Vec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vocab, err := corpus.BuildVocab(data, cfg.MinCount, cfg.Sample)
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}
	if cfg.HS {
		vocab.BuildHuffman()
	}
	var table *corpus.UnigramTable
	if cfg.Negative > 0 {
		table = corpus.NewUnigramTable(vocab)
	}

	// every tag gets a dense document matrix row, first appearance order
	var tags []string
	tagRows := make(map[string]uint32)
	records := make([]docRecord, 0, len(data.Docs))
	for _, doc := range data.Docs {
		rec := docRecord{words: vocab.Indices(doc.Tokens)}
		for _, tag := range doc.Tags {
			row, ok := tagRows[tag]
			if !ok {
				row = uint32(len(tags))
				tagRows[tag] = row
				tags = append(tags, tag)
			}
			rec.tags = append(rec.tags, row)
		}
		records = append(records, rec)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	weights, err := NewWeights(&cfg, vocab, uint32(len(tags)), rng)
	if err != nil {
		return nil, err
	}

	m := &Doc2Vec{
		cfg:     cfg,
		vocab:   vocab,
		weights: weights,
		table:   table,
		tags:    tags,
		tagRows: tagRows,
	}
	m.trainer = newTrainer(&m.cfg, vocab, weights, table, records)
	m.buildIndexes()

	log.Infof("doc2vec %s: vocab %d, docs %d, dim %d",
		cfg.Mode, vocab.Size(), len(tags), cfg.Dim)
	return m, nil
}

func (this *Doc2Vec) buildIndexes() {
	wordIds := make([]string, this.vocab.Size())
	for i, e := range this.vocab.Entries {
		wordIds[i] = e.Token
	}
	this.words = index.New(NamespaceWord, wordIds, this.weights.Word)
	this.docs = index.New(NamespaceDoc, this.tags, this.weights.Doc)
}

// Train runs the configured number of epochs. Must not run
// concurrently with Infer or with queries that need stable vectors.
func (this *Doc2Vec) Train() error {
	return this.trainer.Run()
}

// Stop requests a clean training stop at the next epoch boundary.
func (this *Doc2Vec) Stop() {
	this.trainer.Stop()
}

// SkippedDocs counts documents skipped during training for having no
// in-vocabulary tokens.
func (this *Doc2Vec) SkippedDocs() uint64 {
	return this.trainer.Skipped()
}

func (this *Doc2Vec) Config() Config {
	return this.cfg
}

func (this *Doc2Vec) Vocab() *corpus.Vocabulary {
	return this.vocab
}

func (this *Doc2Vec) Tags() []string {
	return this.tags
}

func (this *Doc2Vec) Weights() *Weights {
	return this.weights
}

// WordIndex is the exact similarity index over word vectors.
func (this *Doc2Vec) WordIndex() *index.Index {
	return this.words
}

// DocIndex is the exact similarity index over document vectors.
func (this *Doc2Vec) DocIndex() *index.Index {
	return this.docs
}

func (this *Doc2Vec) namespace(ns string) (*index.Index, error) {
	switch ns {
	case NamespaceWord:
		return this.words, nil
	case NamespaceDoc:
		return this.docs, nil
	}
	return nil, &index.NotFoundError{Namespace: ns, Key: "namespace"}
}

// VectorFor returns a copy of the stored vector for a document tag or,
// failing that, a vocabulary token.
func (this *Doc2Vec) VectorFor(key string) ([]float32, error) {
	if row, ok := this.tagRows[key]; ok {
		return this.weights.Doc.RowCopy(row), nil
	}
	if id, ok := this.vocab.Id(key); ok {
		return this.weights.Word.RowCopy(id), nil
	}
	return nil, &index.NotFoundError{Namespace: "word+doc", Key: key}
}

// MostSimilar ranks the namespace against the stored vector of id.
func (this *Doc2Vec) MostSimilar(id string, ns string, topn int) ([]index.Match, error) {
	idx, err := this.namespace(ns)
	if err != nil {
		return nil, err
	}
	return idx.MostSimilarId(id, topn)
}

// MostSimilarVector ranks the namespace against an arbitrary query
// vector, e.g. one produced by Infer.
func (this *Doc2Vec) MostSimilarVector(query []float32, ns string, topn int) ([]index.Match, error) {
	idx, err := this.namespace(ns)
	if err != nil {
		return nil, err
	}
	return idx.MostSimilar(query, topn)
}
