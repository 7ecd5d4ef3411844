package matrix

import "errors"

var (
	ErrIndexOutOfRange = errors.New("matrix: row or column index out of range")
	ErrBadShape        = errors.New("matrix: shape must be positive in both dimensions")
)
