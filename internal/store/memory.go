package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mwozniak/voicenotes/internal/model"
)

// MemoryStore is an in-memory Store implementation. It backs tests and serves
// as a zero-dependency backend. Scroll order is insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	created bool
	dim     uint64
	indexed map[string]bool
	order   []string // note IDs in insertion order
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	note      *model.Note
	embedding []float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indexed: make(map[string]bool),
		entries: make(map[string]*memoryEntry),
	}
}

func (s *MemoryStore) CollectionExists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, nil
}

func (s *MemoryStore) CreateCollection(ctx context.Context, dim uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	s.dim = dim
	return nil
}

func (s *MemoryStore) CreateFieldIndex(ctx context.Context, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return ErrCollectionMissing
	}
	// Re-creating an existing index is a no-op, matching the adapter contract.
	s.indexed[field] = true
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return 0, ErrCollectionMissing
	}
	return uint64(len(s.entries)), nil
}

func (s *MemoryStore) Upsert(ctx context.Context, note *model.Note, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.created {
		return ErrCollectionMissing
	}

	noteCopy := *note
	embeddingCopy := make([]float32, len(embedding))
	copy(embeddingCopy, embedding)

	if _, ok := s.entries[note.ID]; !ok {
		s.order = append(s.order, note.ID)
	}
	s.entries[note.ID] = &memoryEntry{
		note:      &noteCopy,
		embedding: embeddingCopy,
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, embedding []float32, filter Filter, limit int) ([]ScoredNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.created {
		return nil, ErrCollectionMissing
	}

	var results []ScoredNote
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.note.UserID != filter.UserID {
			continue
		}
		noteCopy := *entry.note
		results = append(results, ScoredNote{
			Note:  &noteCopy,
			Score: CosineSimilarity(embedding, entry.embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) Scroll(ctx context.Context, filter Filter, limit int) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.created {
		return nil, ErrCollectionMissing
	}

	var notes []*model.Note
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.note.UserID != filter.UserID {
			continue
		}
		noteCopy := *entry.note
		notes = append(notes, &noteCopy)
		if limit > 0 && len(notes) == limit {
			break
		}
	}
	return notes, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*memoryEntry)
	s.order = nil
	s.created = false
	return nil
}
