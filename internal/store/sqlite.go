package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mwozniak/voicenotes/internal/model"
)

// noteCountWarningThreshold is the note count past which brute-force cosine
// scoring starts to hurt; a warning recommends switching to the Qdrant backend.
const noteCountWarningThreshold = 5000

// SQLiteStore is a local-file Store implementation. Embeddings are stored as
// little-endian float32 blobs and ranked with brute-force cosine similarity,
// which is fine at personal-notes scale.
type SQLiteStore struct {
	mu         sync.RWMutex
	db         *sql.DB
	collection string
}

func NewSQLiteStore(dbPath, collection string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		collection: collection,
	}, nil
}

func (s *SQLiteStore) CollectionExists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?
	`, s.collection).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) CreateCollection(ctx context.Context, dim uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %q (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT,
		embedding BLOB NOT NULL
	);`, s.collection)

	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create collection table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateFieldIndex(ctx context.Context, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// IF NOT EXISTS gives the swallow-already-exists semantics for free.
	indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (%q)`,
		"idx_"+s.collection+"_"+field, s.collection, field)
	if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("failed to create field index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count uint64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, s.collection)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, note *model.Note, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	insertSQL := fmt.Sprintf(`
		INSERT INTO %q (id, user_id, text, created_at, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			text = excluded.text,
			created_at = excluded.created_at,
			embedding = excluded.embedding
	`, s.collection)

	_, err := s.db.ExecContext(ctx, insertSQL,
		note.ID, note.UserID, note.Text, note.CreatedAt, encodeEmbedding(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}

	count, _ := s.countLocked(ctx)
	if count >= noteCountWarningThreshold {
		slog.Warn("note count exceeded threshold",
			"count", count,
			"threshold", noteCountWarningThreshold,
			"recommendation", "consider the qdrant backend for better search performance")
	}

	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, embedding []float32, filter Filter, limit int) ([]ScoredNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	querySQL := fmt.Sprintf(`
		SELECT id, user_id, text, created_at, embedding FROM %q WHERE user_id = ?
	`, s.collection)

	rows, err := s.db.QueryContext(ctx, querySQL, filter.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var results []ScoredNote
	for rows.Next() {
		note, blob, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, ScoredNote{
			Note:  note,
			Score: CosineSimilarity(embedding, decodeEmbedding(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *SQLiteStore) Scroll(ctx context.Context, filter Filter, limit int) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	querySQL := fmt.Sprintf(`
		SELECT id, user_id, text, created_at, embedding FROM %q
		WHERE user_id = ? ORDER BY rowid LIMIT ?
	`, s.collection)

	rows, err := s.db.QueryContext(ctx, querySQL, filter.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*model.Note
	for rows.Next() {
		note, _, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return notes, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) countLocked(ctx context.Context) (uint64, error) {
	var count uint64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, s.collection)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanNote(rows *sql.Rows) (*model.Note, []byte, error) {
	var (
		note      model.Note
		createdAt sql.NullString
		blob      []byte
	)
	if err := rows.Scan(&note.ID, &note.UserID, &note.Text, &createdAt, &blob); err != nil {
		return nil, nil, fmt.Errorf("failed to scan row: %w", err)
	}
	if createdAt.Valid {
		note.CreatedAt = createdAt.String
	}
	return &note, blob, nil
}

// encodeEmbedding packs a vector as little-endian float32 bytes.
func encodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return embedding
}
