// Package vector provides the similarity math shared by detection and the in-memory store.
package vector

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Cosine returns the cosine similarity of a and b.
// Mismatched lengths and zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	x, y := widen(a), widen(b)
	den := floats.Norm(x, 2) * floats.Norm(y, 2)
	if den == 0 {
		return 0
	}
	return floats.Dot(x, y) / den
}

// Normalize returns a unit-length copy of v; the zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	x := widen(v)
	n := floats.Norm(x, 2)
	if n == 0 || math.IsNaN(n) {
		return append([]float32(nil), v...)
	}
	floats.Scale(1/n, x)
	out := make([]float32, len(x))
	for i, f := range x {
		out[i] = float32(f)
	}
	return out
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
