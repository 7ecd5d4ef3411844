package util

import "gonum.org/v1/gonum/blas/blas32"

func asVector(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Data: x, Inc: 1}
}

// dot product of two equal-length vectors
func Dot(x, y []float32) float32 {
	return blas32.Dot(asVector(x), asVector(y))
}

// y += a*x
func Axpy(a float32, x, y []float32) {
	blas32.Axpy(a, asVector(x), asVector(y))
}

// x *= a
func Scal(a float32, x []float32) {
	blas32.Scal(a, asVector(x))
}

// euclidean norm
func Nrm2(x []float32) float32 {
	return blas32.Nrm2(asVector(x))
}

func Zero(x []float32) {
	for i := range x {
		x[i] = 0
	}
}
