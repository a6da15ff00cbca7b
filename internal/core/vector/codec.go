// Package vector holds the embedding vector maths used by indexing and
// retrieval: normalisation, dot-product similarity and bounded top-K ranking.
package vector

import "math"

// Normalize returns v scaled to unit Euclidean length.
// A zero vector is returned as a zero vector of the same length.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Similarity is the dot product over the first min(len(a), len(b)) components.
// For normalised inputs it equals the cosine similarity of the originals.
func Similarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
