// Package config loads service configuration from the environment, with
// optional .env file support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvQdrantURL       = "QDRANT_URL"
	EnvQdrantAPIKey    = "QDRANT_API_KEY"
	EnvStoreType       = "VOICENOTES_STORE"
	EnvDBPath          = "VOICENOTES_DB_PATH"
	EnvCollection      = "VOICENOTES_COLLECTION"
	EnvEmbeddingModel  = "VOICENOTES_EMBEDDING_MODEL"
	EnvEmbeddingDim    = "VOICENOTES_EMBEDDING_DIM"
	EnvTranscribeModel = "VOICENOTES_TRANSCRIBE_MODEL"
	EnvSearchLimit     = "VOICENOTES_SEARCH_LIMIT"
	EnvTimeout         = "VOICENOTES_TIMEOUT"
)

// Defaults.
const (
	DefaultStoreType       = "qdrant"
	DefaultQdrantURL       = "http://localhost:6333"
	DefaultDBPath          = "voicenotes.db"
	DefaultCollection      = "notes"
	DefaultEmbeddingModel  = "text-embedding-3-large"
	DefaultEmbeddingDim    = 3072
	DefaultTranscribeModel = "whisper-1"
	DefaultSearchLimit     = 10
	DefaultTimeout         = 30 * time.Second
)

// Config holds everything the service needs at process start. Collaborator
// clients are constructed once from these values and held for the process
// lifetime.
type Config struct {
	OpenAIAPIKey    string
	QdrantURL       string
	QdrantAPIKey    string
	StoreType       string // qdrant, sqlite or memory
	DBPath          string // sqlite backend only
	Collection      string
	EmbeddingModel  string
	EmbeddingDim    int
	TranscribeModel string
	SearchLimit     int
	Timeout         time.Duration
}

// Load reads configuration from the environment. If envFile is non-empty it
// is loaded first (without overriding already-set variables); a missing
// default .env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// best effort: pick up a local .env when present
		godotenv.Load()
	}

	cfg := &Config{
		OpenAIAPIKey:    os.Getenv(EnvOpenAIAPIKey),
		QdrantURL:       getEnv(EnvQdrantURL, DefaultQdrantURL),
		QdrantAPIKey:    os.Getenv(EnvQdrantAPIKey),
		StoreType:       getEnv(EnvStoreType, DefaultStoreType),
		DBPath:          getEnv(EnvDBPath, DefaultDBPath),
		Collection:      getEnv(EnvCollection, DefaultCollection),
		EmbeddingModel:  getEnv(EnvEmbeddingModel, DefaultEmbeddingModel),
		TranscribeModel: getEnv(EnvTranscribeModel, DefaultTranscribeModel),
	}

	var err error
	if cfg.EmbeddingDim, err = getEnvInt(EnvEmbeddingDim, DefaultEmbeddingDim); err != nil {
		return nil, err
	}
	if cfg.SearchLimit, err = getEnvInt(EnvSearchLimit, DefaultSearchLimit); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = getEnvDuration(EnvTimeout, DefaultTimeout); err != nil {
		return nil, err
	}

	switch cfg.StoreType {
	case "qdrant", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("invalid %s: %q (must be qdrant, sqlite or memory)", EnvStoreType, cfg.StoreType)
	}

	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("invalid %s: %d (must be positive)", EnvEmbeddingDim, cfg.EmbeddingDim)
	}
	if cfg.SearchLimit <= 0 {
		return nil, fmt.Errorf("invalid %s: %d (must be positive)", EnvSearchLimit, cfg.SearchLimit)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q: %w", key, v, err)
	}
	return d, nil
}
