package domain

import "math"

// Chunk is the unit of retrieval: a bounded text span with its vector and provenance.
// Chunks are created by ingestion and never mutated.
type Chunk struct {
	ID         string
	FileID     string
	Collection string
	OwnerID    string
	Ordinal    int
	Text       string
	Keywords   []string
	Vector     []float32
	ModelID    string
	FileName   string
}

// Hit is a single retrieval result with its score decomposition.
type Hit struct {
	Chunk    Chunk
	Score    float64
	Semantic float64
	Lexical  float64
	Rerank   float64
	Hop      int
}

// NormalizeL2 scales v to unit length in place and returns it.
// Zero vectors are returned unchanged.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	if math.Abs(norm-1) < 1e-6 {
		return v
	}
	inv := 1 / norm
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
