package store

import "math"

// CosineSimilarity computes the cosine similarity of two vectors, in [-1, 1].
// Mismatched lengths and zero vectors yield -1 (maximally dissimilar).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return -1.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return -1.0
	}

	return dot / (normA * normB)
}
