package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type openAIResponse struct {
	Data  []openAIEmbeddingData `json:"data"`
	Model string                `json:"model"`
}

type openAIEmbeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func successHandler(embedding []float32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := openAIResponse{
			Data:  []openAIEmbeddingData{{Embedding: embedding, Index: 0}},
			Model: "text-embedding-3-large",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestOpenAIEmbedder_New_APIKeyRequired(t *testing.T) {
	_, err := NewOpenAIEmbedder("")
	if !errors.Is(err, ErrAPIKeyRequired) {
		t.Errorf("expected ErrAPIKeyRequired, got %v", err)
	}
}

func TestOpenAIEmbedder_Defaults(t *testing.T) {
	emb, err := NewOpenAIEmbedder("test-api-key")
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}
	if emb.Dimension() != DefaultDimension {
		t.Errorf("expected dimension %d, got %d", DefaultDimension, emb.Dimension())
	}
	if emb.model != DefaultOpenAIModel {
		t.Errorf("expected model %s, got %s", DefaultOpenAIModel, emb.model)
	}
}

func TestOpenAIEmbedder_Embed_Success(t *testing.T) {
	expected := []float32{0.1, 0.2, 0.3}
	var gotReq embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-api-key" {
			t.Errorf("unexpected Authorization header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		successHandler(expected)(w, r)
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithDimension(3))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	result, err := emb.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(result) != len(expected) {
		t.Fatalf("expected %d elements, got %d", len(expected), len(result))
	}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("element %d: expected %v, got %v", i, expected[i], result[i])
		}
	}
	if gotReq.Model != DefaultOpenAIModel {
		t.Errorf("expected model %s in request, got %s", DefaultOpenAIModel, gotReq.Model)
	}
	if gotReq.Dimensions != 3 {
		t.Errorf("expected dimensions 3 in request, got %d", gotReq.Dimensions)
	}
}

func TestOpenAIEmbedder_Embed_EmptyInput(t *testing.T) {
	emb, _ := NewOpenAIEmbedder("test-api-key")
	_, err := emb.Embed(context.Background(), "")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer server.Close()

	emb, _ := NewOpenAIEmbedder("test-api-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := emb.Embed(context.Background(), "test")
	if !errors.Is(err, ErrAPIRequestFailed) {
		t.Fatalf("expected ErrAPIRequestFailed, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", apiErr.StatusCode)
	}
}

func TestOpenAIEmbedder_Embed_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIResponse{Data: []openAIEmbeddingData{}})
	}))
	defer server.Close()

	emb, _ := NewOpenAIEmbedder("test-api-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := emb.Embed(context.Background(), "test")
	if !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		successHandler([]float32{0.1})(w, r)
	}))
	defer server.Close()

	emb, _ := NewOpenAIEmbedder("test-api-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := emb.Embed(ctx, "test")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}
