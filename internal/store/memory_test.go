package store

import (
	"context"
	"testing"

	"github.com/mwozniak/voicenotes/internal/model"
)

func newReadyMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	if err := s.CreateCollection(context.Background(), 3); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	return s
}

func TestMemoryStore_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	exists, err := s.CollectionExists(ctx)
	if err != nil {
		t.Fatalf("CollectionExists failed: %v", err)
	}
	if exists {
		t.Error("expected collection to not exist before creation")
	}

	if err := s.CreateCollection(ctx, 3); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}

	exists, err = s.CollectionExists(ctx)
	if err != nil {
		t.Fatalf("CollectionExists failed: %v", err)
	}
	if !exists {
		t.Error("expected collection to exist after creation")
	}
}

func TestMemoryStore_CreateFieldIndex_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newReadyMemoryStore(t)

	if err := s.CreateFieldIndex(ctx, UserIDField); err != nil {
		t.Fatalf("first CreateFieldIndex failed: %v", err)
	}
	if err := s.CreateFieldIndex(ctx, UserIDField); err != nil {
		t.Fatalf("second CreateFieldIndex must be a no-op, got %v", err)
	}
}

func TestMemoryStore_OpsBeforeCreation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Upsert(ctx, &model.Note{ID: "a"}, []float32{1, 0, 0}); err != ErrCollectionMissing {
		t.Errorf("expected ErrCollectionMissing from Upsert, got %v", err)
	}
	if _, err := s.Count(ctx); err != ErrCollectionMissing {
		t.Errorf("expected ErrCollectionMissing from Count, got %v", err)
	}
}

func TestMemoryStore_Count(t *testing.T) {
	ctx := context.Background()
	s := newReadyMemoryStore(t)

	for i, id := range []string{"a", "b", "c"} {
		note := &model.Note{ID: id, UserID: "user-1", Text: "note"}
		if err := s.Upsert(ctx, note, []float32{float32(i), 1, 0}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}

	// Upsert with an existing id replaces, not adds.
	if err := s.Upsert(ctx, &model.Note{ID: "a", UserID: "user-1", Text: "replaced"}, []float32{0, 0, 1}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	count, _ = s.Count(ctx)
	if count != 3 {
		t.Errorf("expected count 3 after replace, got %d", count)
	}
}

func TestMemoryStore_Search_OrderAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := newReadyMemoryStore(t)

	notes := []struct {
		id        string
		userID    string
		embedding []float32
	}{
		{"a", "user-1", []float32{1, 0, 0}},
		{"b", "user-1", []float32{0.9, 0.1, 0}},
		{"c", "user-1", []float32{0, 1, 0}},
		{"d", "user-2", []float32{1, 0, 0}}, // other user, perfect match
	}
	for _, n := range notes {
		note := &model.Note{ID: n.id, UserID: n.userID, Text: "note " + n.id}
		if err := s.Upsert(ctx, note, n.embedding); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	results, err := s.Search(ctx, []float32{1, 0, 0}, Filter{UserID: "user-1"}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Note.UserID != "user-1" {
			t.Errorf("result leaked from user %q", r.Note.UserID)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending score order: %v > %v", results[i].Score, results[i-1].Score)
		}
	}
	if results[0].Note.ID != "a" {
		t.Errorf("expected closest note 'a' first, got %q", results[0].Note.ID)
	}
}

func TestMemoryStore_Search_Limit(t *testing.T) {
	ctx := context.Background()
	s := newReadyMemoryStore(t)

	for i := 0; i < 5; i++ {
		note := &model.Note{ID: string(rune('a' + i)), UserID: "user-1", Text: "note"}
		if err := s.Upsert(ctx, note, []float32{1, float32(i) * 0.1, 0}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	results, err := s.Search(ctx, []float32{1, 0, 0}, Filter{UserID: "user-1"}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestMemoryStore_Scroll_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newReadyMemoryStore(t)

	ids := []string{"first", "second", "third"}
	for _, id := range ids {
		note := &model.Note{ID: id, UserID: "user-1", Text: id}
		if err := s.Upsert(ctx, note, []float32{1, 0, 0}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	notes, err := s.Scroll(ctx, Filter{UserID: "user-1"}, 10)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	for i, id := range ids {
		if notes[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, notes[i].ID)
		}
	}

	limited, err := s.Scroll(ctx, Filter{UserID: "user-1"}, 2)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 notes with limit 2, got %d", len(limited))
	}
}

func TestMemoryStore_Scroll_UserIsolation(t *testing.T) {
	ctx := context.Background()
	s := newReadyMemoryStore(t)

	if err := s.Upsert(ctx, &model.Note{ID: "a", UserID: "user-1", Text: "mine"}, []float32{1, 0, 0}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	notes, err := s.Scroll(ctx, Filter{UserID: "user-2"}, 10)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("expected no notes for other user, got %d", len(notes))
	}
}
