// Package http exposes the note repository over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mwozniak/voicenotes/internal/auth"
	"github.com/mwozniak/voicenotes/internal/model"
	"github.com/mwozniak/voicenotes/internal/service"
	"github.com/mwozniak/voicenotes/internal/transcriber"
)

// maxAudioBytes bounds a transcription upload (25MB, the provider's own cap).
const maxAudioBytes = 25 << 20

// Config is the HTTP server configuration.
type Config struct {
	Addr string // listen address, e.g. "127.0.0.1:8787"
}

// Server routes the caller-facing operations. The caller's credential rides
// in the Authorization header; the user identity is derived from it per
// request, so the server itself keeps no session state.
type Server struct {
	notes       service.NoteService
	transcriber transcriber.Transcriber
	verifier    *auth.Verifier
	srv         *http.Server
}

// New builds a Server around the wired services.
func New(notes service.NoteService, tr transcriber.Transcriber, verifier *auth.Verifier, config Config) *Server {
	s := &Server{
		notes:       notes,
		transcriber: tr,
		verifier:    verifier,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/verify", s.handleVerify)
	mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /api/notes", s.handleAddNote)
	mux.HandleFunc("GET /api/notes", s.handleListNotes)

	s.srv = &http.Server{
		Addr:    config.Addr,
		Handler: mux,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.srv.Shutdown(context.Background())
	}()

	slog.Info("http server listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

type verifyResponse struct {
	UserID string `json:"user_id"`
}

// handleVerify checks the bearer credential against the provider and returns
// the derived user identifier.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	secret, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer credential")
		return
	}

	userID, err := s.verifier.Verify(r.Context(), secret)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{UserID: userID})
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// handleTranscribe accepts raw audio bytes in the request body and returns
// the transcript.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if _, ok := bearerToken(r); !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer credential")
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio body")
		return
	}
	if len(audio) > maxAudioBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "audio exceeds size limit")
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		if errors.Is(err, transcriber.ErrEmptyAudio) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{Text: text})
}

type addNoteRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer credential")
		return
	}

	var req addNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.notes.AddNote(r.Context(), &service.AddNoteRequest{
		Text:   req.Text,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, service.ErrTextRequired) || errors.Is(err, service.ErrUserIDRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp.Note)
}

type listNotesResponse struct {
	Results []model.RankedNote `json:"results"`
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer credential")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	resp, err := s.notes.ListNotes(r.Context(), &service.ListNotesRequest{
		UserID: userID,
		Query:  r.URL.Query().Get("query"),
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	results := resp.Results
	if results == nil {
		results = []model.RankedNote{}
	}
	writeJSON(w, http.StatusOK, listNotesResponse{Results: results})
}

// requestUserID derives the caller identity from the bearer credential. The
// hash is deterministic, so no per-request provider round trip is needed;
// POST /api/verify does the remote check.
func requestUserID(r *http.Request) (string, bool) {
	secret, ok := bearerToken(r)
	if !ok {
		return "", false
	}
	return auth.UserID(secret), true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredential), errors.Is(err, auth.ErrCredentialRequired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
