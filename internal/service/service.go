// Package service implements the note repository: identity assignment,
// collection bootstrap and similarity-ranked retrieval with per-user
// isolation.
package service

import (
	"context"
	"errors"
)

// NoteService is the operation contract exposed to callers.
type NoteService interface {
	// EnsureCollection idempotently creates the collection and its user_id
	// index. The first call after a cold start pays the creation cost;
	// subsequent calls are no-ops.
	EnsureCollection(ctx context.Context) error

	// AddNote embeds and durably stores one note for one user.
	AddNote(ctx context.Context, req *AddNoteRequest) (*AddNoteResponse, error)

	// ListNotes returns up to the limit notes for one user: ranked by
	// similarity when a query is given, in natural order otherwise.
	ListNotes(ctx context.Context, req *ListNotesRequest) (*ListNotesResponse, error)
}

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrTextRequired   = errors.New("text is required")
	ErrTimeout        = errors.New("operation timed out")
)
