// Package model defines the data types shared across the voicenotes service.
package model

import "fmt"

// Note is the persisted unit: a single text note owned by exactly one user.
// Notes are create-only; there is no update or delete path.
type Note struct {
	ID        string `json:"id"`         // UUID assigned at write time
	UserID    string `json:"user_id"`    // opaque owner identifier (credential hash)
	Text      string `json:"text"`       // plain-text content, possibly an edited transcript
	CreatedAt string `json:"created_at"` // RFC3339 UTC
}

// Validate checks the invariants a note must hold before it is written.
func (n *Note) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("ID must not be empty")
	}
	if n.UserID == "" {
		return fmt.Errorf("UserID must not be empty")
	}
	if n.Text == "" {
		return fmt.Errorf("Text must not be empty")
	}
	return nil
}

// RankedNote is a note as returned to callers. Score is non-nil only for
// similarity-search results; a browse listing carries a nil score, which is
// distinct from a zero score.
type RankedNote struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"created_at,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}
