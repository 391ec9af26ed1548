// Package transcriber turns recorded audio into plain text.
package transcriber

import (
	"context"
	"errors"
	"fmt"
)

// Transcriber converts an audio byte buffer into its best transcript.
// No diarization, no timestamps.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

var (
	ErrAPIKeyRequired   = errors.New("api key is required")
	ErrEmptyAudio       = errors.New("audio buffer is empty")
	ErrAPIRequestFailed = errors.New("API request failed")
	ErrInvalidResponse  = errors.New("invalid API response")
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
