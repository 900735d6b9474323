package retrieval

import "math"

// CosineSimilarity zero-pads the shorter vector. A zero norm counts as 1, so a
// zero vector scores 0 against anything.
func CosineSimilarity(a, b []float32) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = float64(a[i])
		}
		if i < len(b) {
			y = float64(b[i])
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 {
		normA = 1
	}
	if normB == 0 {
		normB = 1
	}

	sim := dot / (normA * normB)
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return clamp(sim, -1, 1)
}
