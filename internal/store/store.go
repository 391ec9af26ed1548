// Package store provides vector storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/mwozniak/voicenotes/internal/model"
)

// UserIDField is the payload field that scopes every read to its owner.
// Isolation between users is enforced entirely by filtering on this field;
// there is no storage-level partition per user.
const UserIDField = "user_id"

// Store is the thin capability wrapper over a vector database. One Store
// instance is bound to one collection. No transactions across calls.
type Store interface {
	// CollectionExists reports whether the backing collection exists.
	CollectionExists(ctx context.Context) (bool, error)

	// CreateCollection creates the collection with the given vector
	// dimensionality and cosine distance.
	CreateCollection(ctx context.Context, dim uint64) error

	// CreateFieldIndex ensures a keyword index on the given payload field.
	// Safe to call when the index already exists: the already-exists
	// condition is swallowed, anything else propagates.
	CreateFieldIndex(ctx context.Context, field string) error

	// Count returns the exact number of points across all users.
	Count(ctx context.Context) (uint64, error)

	// Upsert writes a note and its embedding (insert-or-replace by id).
	Upsert(ctx context.Context, note *model.Note, embedding []float32) error

	// Search returns up to limit notes matching the filter, ordered by
	// descending cosine similarity to the query embedding.
	Search(ctx context.Context, embedding []float32, filter Filter, limit int) ([]ScoredNote, error)

	// Scroll returns up to limit notes matching the filter in the store's
	// natural order, with no relevance ordering.
	Scroll(ctx context.Context, filter Filter, limit int) ([]*model.Note, error)

	Close() error
}

// Filter restricts reads to a single user's notes.
type Filter struct {
	UserID string
}

// ScoredNote is one similarity-search hit.
type ScoredNote struct {
	Note  *model.Note
	Score float64 // cosine similarity, higher is more similar
}

var (
	ErrConnectionFailed  = errors.New("failed to connect to store")
	ErrCollectionMissing = errors.New("collection does not exist")
)
