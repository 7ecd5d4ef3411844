package model

import "fmt"

// ConfigurationError reports an invalid model configuration (zero
// dimensionality, empty vocabulary, conflicting output-layer flags).
// It is fatal and raised before any training starts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "model: configuration: " + e.Reason
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// MalformedInputError reports a document with nothing to train on
// (empty or all out-of-vocabulary). During training such documents are
// counted and skipped; during single-document inference the error is
// returned to the caller.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "model: malformed input: " + e.Reason
}
