package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "whisper-1"

	// audioFileName is the container hint sent with the upload; the service
	// sniffs the format from the name's extension.
	audioFileName = "audio.mp3"
)

// OpenAITranscriber submits audio to the OpenAI transcription endpoint.
type OpenAITranscriber struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// OpenAIOption configures an OpenAITranscriber.
type OpenAIOption func(*OpenAITranscriber)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) OpenAIOption {
	return func(t *OpenAITranscriber) {
		t.baseURL = url
	}
}

// WithModel overrides the transcription model.
func WithModel(model string) OpenAIOption {
	return func(t *OpenAITranscriber) {
		t.model = model
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(t *OpenAITranscriber) {
		t.httpClient = client
	}
}

// NewOpenAITranscriber creates a transcriber bound to one model.
func NewOpenAITranscriber(apiKey string, opts ...OpenAIOption) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	t := &OpenAITranscriber{
		httpClient: http.DefaultClient,
		baseURL:    DefaultOpenAIBaseURL,
		apiKey:     apiKey,
		model:      DefaultOpenAIModel,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio buffer and returns the transcript text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", audioFileName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}

	url := t.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrAPIRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var trResp transcriptionResponse
	if err := json.Unmarshal(body, &trResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return trResp.Text, nil
}
