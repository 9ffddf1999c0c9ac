// Package embedding provides the cache engine's text-to-vector
// collaborator: given a prompt string, produce a fixed-dimension
// embedding for the vector index to search on.
package embedding

import "context"

// Embedder generates embedding vectors for text. Determinism for
// identical input is assumed by callers but not required by this
// interface.
type Embedder interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the name of the embedding model in use.
	Model() string

	// Dimension returns the fixed dimension D of vectors this embedder
	// produces.
	Dimension() int
}
