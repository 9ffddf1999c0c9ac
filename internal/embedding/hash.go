package embedding

import (
	"context"
	"hash/fnv"
)

// HashEmbedder is a deterministic, dependency-free Embedder for tests and
// local development: it derives a pseudo-random but stable vector from
// the FNV hash of the input text, seeded per dimension index. It makes no
// semantic claims — identical text always produces identical vectors,
// but similarity between distinct prompts is not meaningful.
type HashEmbedder struct {
	dimension int
	model     string
}

// NewHashEmbedder constructs a HashEmbedder producing vectors of the
// given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{dimension: dimension, model: "hash-embedder-v1"}
}

// Embed derives a deterministic vector from text via per-dimension FNV-1a
// hashing.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for i := range vec {
		h := fnv.New32a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		// Map the 32-bit hash into [-1, 1).
		vec[i] = float32(h.Sum32())/float32(1<<31) - 1
	}
	return vec, nil
}

// Model returns a fixed identifier for this embedder.
func (e *HashEmbedder) Model() string { return e.model }

// Dimension returns the configured vector dimension.
func (e *HashEmbedder) Dimension() int { return e.dimension }
