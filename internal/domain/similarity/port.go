package similarity

import "context"

// Embedder turns one text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ReferenceSource lists known-IP texts to compare against.
type ReferenceSource interface {
	References(ctx context.Context, limit int) ([]string, error)
}
