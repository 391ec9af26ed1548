package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwozniak/voicenotes/internal/embedder"
	"github.com/mwozniak/voicenotes/internal/model"
	"github.com/mwozniak/voicenotes/internal/store"
)

// noteService is the NoteService implementation.
type noteService struct {
	embedder     embedder.Embedder
	store        store.Store
	dim          uint64
	defaultLimit int
	timeout      time.Duration
}

// Option configures the note service.
type Option func(*noteService)

// WithDefaultLimit overrides the default result limit (10).
func WithDefaultLimit(limit int) Option {
	return func(s *noteService) {
		s.defaultLimit = limit
	}
}

// WithTimeout sets the per-operation deadline. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(s *noteService) {
		s.timeout = timeout
	}
}

// NewNoteService wires the repository from its collaborators. The store and
// embedder are constructed once at process start and passed in; the service
// holds no other state.
func NewNoteService(emb embedder.Embedder, s store.Store, opts ...Option) NoteService {
	svc := &noteService{
		embedder:     emb,
		store:        s,
		dim:          uint64(emb.Dimension()),
		defaultLimit: 10,
		timeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// EnsureCollection creates the collection and the user_id keyword index if
// absent. Both steps are idempotent: the existence check guards creation, and
// the adapter swallows the index-already-exists condition.
func (s *noteService) EnsureCollection(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	exists, err := s.store.CollectionExists(ctx)
	if err != nil {
		return s.opErr(fmt.Errorf("failed to check collection: %w", err))
	}
	if !exists {
		if err := s.store.CreateCollection(ctx, s.dim); err != nil {
			return s.opErr(fmt.Errorf("failed to create collection: %w", err))
		}
	}

	if err := s.store.CreateFieldIndex(ctx, store.UserIDField); err != nil {
		return s.opErr(fmt.Errorf("failed to ensure user index: %w", err))
	}
	return nil
}

// AddNote assigns a collision-resistant UUID id, embeds the text and upserts
// the note. Once it returns successfully the note is durably retrievable for
// its owner. UUID ids stay unique under concurrent writers, where the
// count-plus-one scheme this replaces would race.
func (s *noteService) AddNote(ctx context.Context, req *AddNoteRequest) (*AddNoteResponse, error) {
	if req.UserID == "" {
		return nil, ErrUserIDRequired
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrTextRequired
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	embedding, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		return nil, s.opErr(fmt.Errorf("failed to generate embedding: %w", err))
	}

	note := &model.Note{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Text:      req.Text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Upsert(ctx, note, embedding); err != nil {
		return nil, s.opErr(fmt.Errorf("failed to store note: %w", err))
	}

	return &AddNoteResponse{Note: note}, nil
}

// ListNotes reads at most the requested number of the user's notes. Query
// mode ranks by descending cosine similarity and attaches scores; browse mode
// returns natural order and nil scores.
func (s *noteService) ListNotes(ctx context.Context, req *ListNotesRequest) (*ListNotesResponse, error) {
	if req.UserID == "" {
		return nil, ErrUserIDRequired
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	filter := store.Filter{UserID: req.UserID}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if strings.TrimSpace(req.Query) != "" {
		embedding, err := s.embedder.Embed(ctx, req.Query)
		if err != nil {
			return nil, s.opErr(fmt.Errorf("failed to generate embedding: %w", err))
		}

		hits, err := s.store.Search(ctx, embedding, filter, limit)
		if err != nil {
			return nil, s.opErr(fmt.Errorf("failed to search notes: %w", err))
		}

		results := make([]model.RankedNote, 0, len(hits))
		for _, hit := range hits {
			score := hit.Score
			results = append(results, model.RankedNote{
				ID:        hit.Note.ID,
				Text:      hit.Note.Text,
				CreatedAt: hit.Note.CreatedAt,
				Score:     &score,
			})
		}
		return &ListNotesResponse{Results: results}, nil
	}

	notes, err := s.store.Scroll(ctx, filter, limit)
	if err != nil {
		return nil, s.opErr(fmt.Errorf("failed to list notes: %w", err))
	}

	results := make([]model.RankedNote, 0, len(notes))
	for _, note := range notes {
		results = append(results, model.RankedNote{
			ID:        note.ID,
			Text:      note.Text,
			CreatedAt: note.CreatedAt,
		})
	}
	return &ListNotesResponse{Results: results}, nil
}

func (s *noteService) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// opErr surfaces deadline expiry as ErrTimeout so callers can tell a slow
// collaborator from a broken one.
func (s *noteService) opErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
