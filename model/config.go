package model

import (
	"fmt"
	"runtime"
)

// Mode selects the paragraph-vector training variant. Each mode carries
// its own context-extraction and gradient-application strategy and is
// dispatched on inside the trainer, there is no mode hierarchy.
type Mode int

const (
	// PVDBOW predicts sampled document words from the document vector
	// alone.
	PVDBOW Mode = iota
	// PVDMMean predicts the center word from the mean of the document
	// vector and the window context word vectors.
	PVDMMean
	// PVDMConcat predicts the center word from the document vector
	// concatenated with the context word vectors at fixed offsets.
	PVDMConcat
)

var modeNames = map[string]Mode{
	"dbow":     PVDBOW,
	"dm":       PVDMMean,
	"dmconcat": PVDMConcat,
}

func (m Mode) String() string {
	switch m {
	case PVDBOW:
		return "dbow"
	case PVDMMean:
		return "dm"
	case PVDMConcat:
		return "dmconcat"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ModeByName resolves a mode name used in flags and persisted models.
func ModeByName(name string) (Mode, error) {
	m, ok := modeNames[name]
	if !ok {
		return 0, configErrorf("mode %s not registered", name)
	}
	return m, nil
}

type Config struct {
	Mode     Mode
	Dim      uint32 // vector dimensionality D
	Window   int    // context window size, per side
	Epochs   int
	Alpha    float32 // initial learning rate
	MinAlpha float32 // learning rate floor of the linear decay
	MinCount uint32  // vocabulary frequency cutoff
	Sample   float32 // subsampling threshold, 0 disables

	HS       bool // hierarchical-softmax output layer
	Negative int  // negative samples per target, 0 disables
	// NegRetry bounds resampling when a negative draw collides with
	// the true target; after that many tries the collision is accepted.
	NegRetry int

	// DBOWTrainWords additionally trains word vectors with a skip-gram
	// objective over the same documents (DBOW mode only).
	DBOWTrainWords bool

	Workers     int
	Seed        int64
	InferEpochs int // local epochs for out-of-sample inference
}

func DefaultConfig() Config {
	return Config{
		Mode:        PVDBOW,
		Dim:         100,
		Window:      5,
		Epochs:      10,
		Alpha:       0.025,
		MinAlpha:    0.0001,
		MinCount:    5,
		Sample:      0,
		Negative:    5,
		NegRetry:    3,
		Workers:     runtime.NumCPU(),
		Seed:        1,
		InferEpochs: 5,
	}
}

// Validate checks the configuration before any matrix is allocated.
func (c *Config) Validate() error {
	if c.Dim == 0 {
		return configErrorf("dimensionality must be positive")
	}
	if c.HS && c.Negative > 0 {
		return configErrorf("hierarchical softmax and negative sampling are exclusive")
	}
	if !c.HS && c.Negative <= 0 {
		return configErrorf("no output layer: enable hs or set negative > 0")
	}
	if c.Mode != PVDBOW && c.Window < 1 {
		return configErrorf("window must be positive in dm modes")
	}
	if c.Alpha <= 0 || c.MinAlpha < 0 || c.MinAlpha > c.Alpha {
		return configErrorf("need 0 <= min_alpha <= alpha, got alpha=%g min_alpha=%g", c.Alpha, c.MinAlpha)
	}
	if c.Epochs < 0 {
		return configErrorf("epochs must be non-negative")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.NegRetry < 0 {
		c.NegRetry = 0
	}
	if c.InferEpochs <= 0 {
		c.InferEpochs = 5
	}
	return nil
}

// InputDim is the width of the input layer: D for dbow and dm mean,
// D*(2*window+1) for dm concat (document vector plus 2*window context
// slots).
func (c *Config) InputDim() uint32 {
	if c.Mode == PVDMConcat {
		return c.Dim * uint32(2*c.Window+1)
	}
	return c.Dim
}
