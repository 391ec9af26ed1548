// Package auth derives user identity from the caller's credential and
// verifies the credential against the provider.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

var (
	ErrCredentialRequired = errors.New("credential is required")
	ErrInvalidCredential  = errors.New("credential rejected by provider")
	ErrVerifyFailed       = errors.New("credential verification failed")
)

// UserID derives the opaque user identifier from a credential. The derivation
// is a one-way hash: the same credential always maps to the same identifier,
// and the credential cannot be recovered from it.
func UserID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Verifier checks a credential against the OpenAI API.
type Verifier struct {
	httpClient *http.Client
	baseURL    string
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) VerifierOption {
	return func(v *Verifier) {
		v.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *Verifier) {
		v.httpClient = client
	}
}

func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		httpClient: http.DefaultClient,
		baseURL:    DefaultOpenAIBaseURL,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the credential by listing the provider's models, the cheapest
// authenticated call. On success it returns the derived user identifier.
func (v *Verifier) Verify(ctx context.Context, secret string) (string, error) {
	if secret == "" {
		return "", ErrCredentialRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/models", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return UserID(secret), nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidCredential
	default:
		return "", fmt.Errorf("%w: unexpected status %d", ErrVerifyFailed, resp.StatusCode)
	}
}
