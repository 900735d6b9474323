package retrieval

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdentity(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	if got := CosineSimilarity(a, a); math.Abs(got-1) > 1e-6 {
		t.Fatalf("expected ~1 for identical vectors, got %f", got)
	}
}

func TestCosineSimilarityKnownValues(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 2}, b: []float32{-1, -2}, want: -1},
		{name: "zero padded", a: []float32{1, 0, 0}, b: []float32{1}, want: 1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "both empty", a: nil, b: nil, want: 0},
	}
	for _, tc := range cases {
		if got := CosineSimilarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-6 {
			t.Fatalf("%s: expected %f, got %f", tc.name, tc.want, got)
		}
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{-3, 0.5, 2},
		{1e20, -1e20, 3},
		{0.0001, 0.0002},
		{7},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			got := CosineSimilarity(a, b)
			if got < -1 || got > 1 {
				t.Fatalf("cosine out of bounds for %v vs %v: %f", a, b, got)
			}
		}
	}
}
