// Package metric provides vector distance calculations for the index
// backends. All functions assume the caller has validated that both
// vectors have the same length; dimensionality is enforced once at the
// index boundary, not per distance call.
package metric

import (
	"math"
)

// Dot calculates the dot product of two float32 slices.
func Dot(v1, v2 []float32) float32 {
	var sum float32
	for i := range v1 {
		sum += v1[i] * v2[i]
	}
	return sum
}

// Magnitude calculates the magnitude (length) of a float32 slice.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// SquaredL2 calculates the squared L2 distance between two float32 slices.
func SquaredL2(v1, v2 []float32) float32 {
	var sum float32
	for i := range v1 {
		d := v1[i] - v2[i]
		sum += d * d
	}
	return sum
}

// CosineDistance calculates 1 - cosine similarity between two float32
// slices. Zero-magnitude vectors yield the maximum distance 1.
func CosineDistance(v1, v2 []float32) float32 {
	m1 := Magnitude(v1)
	m2 := Magnitude(v2)
	if m1 == 0 || m2 == 0 {
		return 1
	}
	return 1 - Dot(v1, v2)/(m1*m2)
}

// NegativeDot calculates the negated dot product, so that larger inner
// products sort as smaller distances.
func NegativeDot(v1, v2 []float32) float32 {
	return -Dot(v1, v2)
}

// Normalize L2-normalizes v in place. Returns false if v has zero norm.
func Normalize(v []float32) bool {
	m := Magnitude(v)
	if m == 0 {
		return false
	}
	inv := 1 / m
	for i := range v {
		v[i] *= inv
	}
	return true
}
