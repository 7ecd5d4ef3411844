package model

import (
	"strconv"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/bobonovski/gopv/corpus"
	"github.com/bobonovski/gopv/sstable"
)

// FormatVersion guards the persisted layout; a mismatch on load is
// fatal and reports expected vs found.
const FormatVersion = 1

// Save serializes everything needed to replicate the forward and
// inference computation: fn.cfg (format version + training
// configuration), fn.vocab, fn.docs (tag to row map), and the weight
// matrices fn.wv / fn.ov / fn.dv.
func (this *Doc2Vec) Save(fn string) error {
	cfg := sstable.NewKV()
	cfg.Set("format_version", strconv.Itoa(FormatVersion))
	cfg.Set("mode", this.cfg.Mode.String())
	cfg.Set("dim", strconv.FormatUint(uint64(this.cfg.Dim), 10))
	cfg.Set("window", strconv.Itoa(this.cfg.Window))
	cfg.Set("epochs", strconv.Itoa(this.cfg.Epochs))
	cfg.Set("alpha", strconv.FormatFloat(float64(this.cfg.Alpha), 'e', -1, 32))
	cfg.Set("min_alpha", strconv.FormatFloat(float64(this.cfg.MinAlpha), 'e', -1, 32))
	cfg.Set("min_count", strconv.FormatUint(uint64(this.cfg.MinCount), 10))
	cfg.Set("sample", strconv.FormatFloat(float64(this.cfg.Sample), 'e', -1, 32))
	cfg.Set("hs", strconv.FormatBool(this.cfg.HS))
	cfg.Set("negative", strconv.Itoa(this.cfg.Negative))
	cfg.Set("neg_retry", strconv.Itoa(this.cfg.NegRetry))
	cfg.Set("dbow_train_words", strconv.FormatBool(this.cfg.DBOWTrainWords))
	cfg.Set("infer_epochs", strconv.Itoa(this.cfg.InferEpochs))
	cfg.Set("seed", strconv.FormatInt(this.cfg.Seed, 10))
	if err := cfg.Write(fn + ".cfg"); err != nil {
		return err
	}

	if err := sstable.WriteVocab(fn+".vocab", this.vocab); err != nil {
		return err
	}

	docs := sstable.NewKV()
	for row, tag := range this.tags {
		docs.Set(strconv.Itoa(row), tag)
	}
	if err := docs.Write(fn + ".docs"); err != nil {
		return err
	}

	if err := sstable.WriteFloat32Matrix(fn+".wv", this.weights.Word); err != nil {
		return err
	}
	if err := sstable.WriteFloat32Matrix(fn+".ov", this.weights.Out); err != nil {
		return err
	}
	if err := sstable.WriteFloat32Matrix(fn+".dv", this.weights.Doc); err != nil {
		return err
	}

	log.Infof("model saved to %s.{cfg,vocab,docs,wv,ov,dv}", fn)
	return nil
}

// Load reconstructs a model persisted by Save. The corpus itself is
// not part of the layout, so the loaded model serves queries and
// inference; resuming training needs the corpus re-supplied.
func Load(fn string) (*Doc2Vec, error) {
	kv, err := sstable.ReadKV(fn + ".cfg")
	if err != nil {
		return nil, err
	}
	version, _ := kv.Get("format_version")
	if version != strconv.Itoa(FormatVersion) {
		return nil, errors.Errorf("model: format version mismatch: expected %d, found %q",
			FormatVersion, version)
	}

	cfg, err := configFromKV(kv)
	if err != nil {
		return nil, err
	}

	entries, err := sstable.ReadVocab(fn + ".vocab")
	if err != nil {
		return nil, err
	}
	vocab := corpus.NewVocabularyFromEntries(entries, cfg.Sample)

	docs, err := sstable.ReadKV(fn + ".docs")
	if err != nil {
		return nil, err
	}
	tags := make([]string, len(docs.Keys))
	tagRows := make(map[string]uint32, len(docs.Keys))
	for _, k := range docs.Keys {
		row, err := strconv.Atoi(k)
		if err != nil || row < 0 || row >= len(tags) {
			return nil, errors.Errorf("model: bad document row index %q", k)
		}
		tag, _ := docs.Get(k)
		tags[row] = tag
		tagRows[tag] = uint32(row)
	}

	word, err := sstable.ReadFloat32Matrix(fn + ".wv")
	if err != nil {
		return nil, err
	}
	out, err := sstable.ReadFloat32Matrix(fn + ".ov")
	if err != nil {
		return nil, err
	}
	doc, err := sstable.ReadFloat32Matrix(fn + ".dv")
	if err != nil {
		return nil, err
	}

	if r, c := word.Shape(); r != vocab.Size() || c != cfg.Dim {
		return nil, errors.Errorf("model: word matrix shape %dx%d, expected %dx%d",
			r, c, vocab.Size(), cfg.Dim)
	}
	if _, c := out.Shape(); c != cfg.InputDim() {
		return nil, errors.Errorf("model: output matrix width %d, expected %d", c, cfg.InputDim())
	}
	if r, c := doc.Shape(); int(r) < len(tags) || c != cfg.Dim {
		return nil, errors.Errorf("model: document matrix shape %dx%d, expected at least %dx%d",
			r, c, len(tags), cfg.Dim)
	}

	var table *corpus.UnigramTable
	if cfg.Negative > 0 {
		table = corpus.NewUnigramTable(vocab)
	}

	m := &Doc2Vec{
		cfg:     cfg,
		vocab:   vocab,
		weights: &Weights{Dim: cfg.Dim, Word: word, Doc: doc, Out: out},
		table:   table,
		tags:    tags,
		tagRows: tagRows,
	}
	m.trainer = newTrainer(&m.cfg, vocab, m.weights, table, nil)
	m.buildIndexes()
	return m, nil
}

func configFromKV(kv *sstable.KV) (Config, error) {
	cfg := DefaultConfig()

	get := func(key string) string {
		v, _ := kv.Get(key)
		return v
	}
	mode, err := ModeByName(get("mode"))
	if err != nil {
		return cfg, err
	}
	cfg.Mode = mode

	fail := func(key string, err error) (Config, error) {
		return cfg, errors.Wrapf(err, "model: bad persisted %s", key)
	}
	dim, err := strconv.ParseUint(get("dim"), 10, 32)
	if err != nil {
		return fail("dim", err)
	}
	cfg.Dim = uint32(dim)
	if cfg.Window, err = strconv.Atoi(get("window")); err != nil {
		return fail("window", err)
	}
	if cfg.Epochs, err = strconv.Atoi(get("epochs")); err != nil {
		return fail("epochs", err)
	}
	alpha, err := strconv.ParseFloat(get("alpha"), 32)
	if err != nil {
		return fail("alpha", err)
	}
	cfg.Alpha = float32(alpha)
	minAlpha, err := strconv.ParseFloat(get("min_alpha"), 32)
	if err != nil {
		return fail("min_alpha", err)
	}
	cfg.MinAlpha = float32(minAlpha)
	minCount, err := strconv.ParseUint(get("min_count"), 10, 32)
	if err != nil {
		return fail("min_count", err)
	}
	cfg.MinCount = uint32(minCount)
	sample, err := strconv.ParseFloat(get("sample"), 32)
	if err != nil {
		return fail("sample", err)
	}
	cfg.Sample = float32(sample)
	if cfg.HS, err = strconv.ParseBool(get("hs")); err != nil {
		return fail("hs", err)
	}
	if cfg.Negative, err = strconv.Atoi(get("negative")); err != nil {
		return fail("negative", err)
	}
	if cfg.NegRetry, err = strconv.Atoi(get("neg_retry")); err != nil {
		return fail("neg_retry", err)
	}
	if cfg.DBOWTrainWords, err = strconv.ParseBool(get("dbow_train_words")); err != nil {
		return fail("dbow_train_words", err)
	}
	if cfg.InferEpochs, err = strconv.Atoi(get("infer_epochs")); err != nil {
		return fail("infer_epochs", err)
	}
	if cfg.Seed, err = strconv.ParseInt(get("seed"), 10, 64); err != nil {
		return fail("seed", err)
	}
	return cfg, cfg.Validate()
}
