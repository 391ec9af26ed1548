package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwozniak/voicenotes/internal/config"
	"github.com/mwozniak/voicenotes/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:    "sk-test",
		StoreType:       "memory",
		Collection:      "notes",
		EmbeddingModel:  config.DefaultEmbeddingModel,
		EmbeddingDim:    config.DefaultEmbeddingDim,
		TranscribeModel: config.DefaultTranscribeModel,
		SearchLimit:     config.DefaultSearchLimit,
		Timeout:         30 * time.Second,
	}
}

func TestBuild_MemoryStore(t *testing.T) {
	app, err := Build(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer app.Close()

	if _, ok := app.Store.(*store.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", app.Store)
	}
	if app.Notes == nil {
		t.Error("expected a note service")
	}
	if app.Verifier == nil {
		t.Error("expected a verifier")
	}

	// The collection is ready for use after Build.
	exists, err := app.Store.CollectionExists(context.Background())
	if err != nil {
		t.Fatalf("CollectionExists failed: %v", err)
	}
	if !exists {
		t.Error("expected collection to exist after Build")
	}
}

func TestBuild_SQLiteStore(t *testing.T) {
	cfg := testConfig()
	cfg.StoreType = "sqlite"
	cfg.DBPath = filepath.Join(t.TempDir(), "notes.db")

	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer app.Close()

	if _, ok := app.Store.(*store.SQLiteStore); !ok {
		t.Errorf("expected sqlite store, got %T", app.Store)
	}
}

func TestBuild_MissingAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""

	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for missing API key")
	}
}

func TestBuild_UnknownStore(t *testing.T) {
	cfg := testConfig()
	cfg.StoreType = "bogus"

	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for unknown store type")
	}
}
