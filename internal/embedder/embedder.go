// Package embedder turns text into fixed-dimension embedding vectors.
package embedder

import (
	"context"
	"errors"
	"fmt"
)

// Embedder converts text into an embedding vector.
type Embedder interface {
	// Embed converts text into an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed output dimensionality of this embedder.
	Dimension() int
}

var (
	ErrAPIKeyRequired   = errors.New("api key is required")
	ErrEmptyInput       = errors.New("input text is empty")
	ErrAPIRequestFailed = errors.New("API request failed")
	ErrInvalidResponse  = errors.New("invalid API response")
	ErrEmptyEmbedding   = errors.New("empty embedding returned")
)

// APIError carries the provider's HTTP failure detail.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPIRequestFailed
}
