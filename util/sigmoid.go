package util

import "math"

// sigmoid lookup table over [-MaxExp, MaxExp], word2vec style: the
// training loop never needs more resolution than this and the table
// keeps math.Exp out of the hot path
const (
	MaxExp       = 6.0
	expTableSize = 1000
)

var expTable [expTableSize]float32

func init() {
	for i := 0; i < expTableSize; i += 1 {
		x := math.Exp((float64(i)/expTableSize*2 - 1) * MaxExp)
		expTable[i] = float32(x / (x + 1))
	}
}

// Sigmoid returns 1/(1+exp(-f)) from the lookup table, saturating to
// 0 or 1 outside [-MaxExp, MaxExp].
func Sigmoid(f float32) float32 {
	if f >= MaxExp {
		return 1
	}
	if f <= -MaxExp {
		return 0
	}
	return expTable[int((f+MaxExp)*(expTableSize/MaxExp/2))]
}
