package service

import "github.com/mwozniak/voicenotes/internal/model"

// AddNoteRequest adds one note for one user.
type AddNoteRequest struct {
	Text   string
	UserID string
}

// AddNoteResponse returns the stored note.
type AddNoteResponse struct {
	Note *model.Note
}

// ListNotesRequest lists a user's notes. A blank or whitespace-only Query
// selects browse mode; otherwise the notes are ranked by similarity to it.
// Limit <= 0 selects the configured default.
type ListNotesRequest struct {
	UserID string
	Query  string
	Limit  int
}

// ListNotesResponse carries the finite result sequence. Each entry's Score is
// non-nil only in query mode.
type ListNotesResponse struct {
	Results []model.RankedNote
}
