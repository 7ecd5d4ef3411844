package main

import (
	"flag"
	"fmt"

	log "github.com/golang/glog"

	"github.com/bobonovski/gopv/config"
	"github.com/bobonovski/gopv/corpus"
	"github.com/bobonovski/gopv/index"
	"github.com/bobonovski/gopv/model"
)

var (
	configFile = flag.String("config", "", "optional settings file (yaml/toml/json)")
	input      = flag.String("input_file", "", "input training file, tag<TAB>token... per line")
	modelPath  = flag.String("model", "gopv", "model file prefix for save/load")
	trainMode  = flag.String("mode", "", "training mode: dbow, dm or dmconcat")
	dim        = flag.Uint("dim", 0, "vector dimensionality")
	window     = flag.Int("window", 0, "context window size per side")
	epochs     = flag.Int("epochs", 0, "number of training epochs")
	negative   = flag.Int("negative", -1, "negative samples per target, 0 with -hs")
	hs         = flag.Bool("hs", false, "use hierarchical softmax instead of negative sampling")
	minCount   = flag.Uint("min_count", 0, "discard tokens rarer than this")
	sample     = flag.Float64("sample", -1, "subsampling threshold, 0 disables")
	workers    = flag.Int("workers", 0, "worker goroutines, 0 for GOMAXPROCS")
	seed       = flag.Int64("seed", 0, "base random seed")

	query     = flag.String("query", "", "rank this tag or token instead of training")
	namespace = flag.String("namespace", model.NamespaceDoc, "query namespace: word or doc")
	topn      = flag.Int("topn", 10, "result count for queries")
	approx    = flag.Bool("approx", false, "answer the query from an hnsw graph instead of the exact ranking")
)

func main() {
	flag.Parse()

	settings, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(settings)

	if *query != "" {
		runQuery(settings)
		return
	}
	runTrain(settings)
}

// explicitly set flags win over the settings file
func applyFlags(s *config.Settings) {
	if *input != "" {
		s.Input = *input
	}
	s.Model = *modelPath
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			s.Mode = *trainMode
		case "dim":
			s.Dim = uint32(*dim)
		case "window":
			s.Window = *window
		case "epochs":
			s.Epochs = *epochs
		case "negative":
			s.Negative = *negative
		case "hs":
			s.HS = *hs
		case "min_count":
			s.MinCount = uint32(*minCount)
		case "sample":
			s.Sample = *sample
		case "workers":
			s.Workers = *workers
		case "seed":
			s.Seed = *seed
		}
	})
}

func modelConfig(s *config.Settings) (model.Config, error) {
	cfg := model.DefaultConfig()
	mode, err := model.ModeByName(s.Mode)
	if err != nil {
		return cfg, err
	}
	cfg.Mode = mode
	cfg.Dim = s.Dim
	cfg.Window = s.Window
	cfg.Epochs = s.Epochs
	cfg.Alpha = float32(s.Alpha)
	cfg.MinAlpha = float32(s.MinAlpha)
	cfg.MinCount = s.MinCount
	cfg.Sample = float32(s.Sample)
	cfg.HS = s.HS
	cfg.Negative = s.Negative
	if s.HS {
		cfg.Negative = 0
	}
	cfg.Workers = s.Workers
	cfg.Seed = s.Seed
	return cfg, nil
}

func runTrain(s *config.Settings) {
	if s.Input == "" {
		log.Fatal("no input file given")
	}
	cfg, err := modelConfig(s)
	if err != nil {
		log.Fatal(err)
	}

	data := &corpus.Corpus{}
	if err := data.Load(s.Input); err != nil {
		log.Fatal(err)
	}

	m, err := model.New(cfg, data)
	if err != nil {
		log.Fatal(err)
	}
	if err := m.Train(); err != nil {
		log.Fatal(err)
	}
	if n := m.SkippedDocs(); n > 0 {
		log.Infof("skipped %d empty documents", n)
	}
	if err := m.Save(s.Model); err != nil {
		log.Fatal(err)
	}
}

func runQuery(s *config.Settings) {
	m, err := model.Load(s.Model)
	if err != nil {
		log.Fatal(err)
	}

	var matches []index.Match
	if *approx {
		vec, err := m.VectorFor(*query)
		if err != nil {
			log.Fatal(err)
		}
		matches = approxIndex(m, *namespace).Search(vec, *topn)
	} else {
		matches, err = m.MostSimilar(*query, *namespace, *topn)
		if err != nil {
			log.Fatal(err)
		}
	}

	for _, match := range matches {
		fmt.Printf("%s\t%f\n", match.Id, match.Sim)
	}
}

func approxIndex(m *model.Doc2Vec, ns string) *index.Approx {
	if ns == model.NamespaceWord {
		ids := make([]string, 0, m.Vocab().Size())
		for _, e := range m.Vocab().Entries {
			ids = append(ids, e.Token)
		}
		return index.NewApprox(ns, ids, m.Weights().Word)
	}
	return index.NewApprox(ns, m.Tags(), m.Weights().Doc)
}
