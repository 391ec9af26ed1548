// Package bootstrap wires configuration into concrete collaborators. The
// command layer calls Build once at startup and holds the result for the
// process lifetime.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mwozniak/voicenotes/internal/auth"
	"github.com/mwozniak/voicenotes/internal/config"
	"github.com/mwozniak/voicenotes/internal/embedder"
	"github.com/mwozniak/voicenotes/internal/service"
	"github.com/mwozniak/voicenotes/internal/store"
	"github.com/mwozniak/voicenotes/internal/transcriber"
)

// App holds the wired collaborators for a running process.
type App struct {
	Config      *config.Config
	Store       store.Store
	Embedder    embedder.Embedder
	Transcriber transcriber.Transcriber
	Verifier    *auth.Verifier
	Notes       service.NoteService
}

// Build constructs all collaborators from cfg and ensures the note
// collection exists. The caller owns the returned App and must Close it.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	emb, err := embedder.NewOpenAIEmbedder(cfg.OpenAIAPIKey,
		embedder.WithModel(cfg.EmbeddingModel),
		embedder.WithDimension(cfg.EmbeddingDim),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	tr, err := transcriber.NewOpenAITranscriber(cfg.OpenAIAPIKey,
		transcriber.WithModel(cfg.TranscribeModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	s, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	notes := service.NewNoteService(emb, s,
		service.WithDefaultLimit(cfg.SearchLimit),
		service.WithTimeout(cfg.Timeout),
	)

	if err := notes.EnsureCollection(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	slog.Info("bootstrap complete",
		"store", cfg.StoreType,
		"collection", cfg.Collection,
		"embedding_model", cfg.EmbeddingModel,
		"embedding_dim", cfg.EmbeddingDim)

	return &App{
		Config:      cfg,
		Store:       s,
		Embedder:    emb,
		Transcriber: tr,
		Verifier:    auth.NewVerifier(),
		Notes:       notes,
	}, nil
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreType {
	case "qdrant":
		s, err := store.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		return s, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.DBPath, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.StoreType)
	}
}

// Close releases the App's resources.
func (a *App) Close() error {
	return a.Store.Close()
}
