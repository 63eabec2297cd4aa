package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const tokeninfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// GoogleIdentity is the subset of Google ID token claims the portal uses.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture *string
}

// TokenVerifier validates a federated ID token and returns the identity it
// asserts.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint,
// checking the audience matches the configured client ID.
type GoogleVerifier struct {
	clientID string
	client   *http.Client
	endpoint string
}

// NewGoogleVerifier builds a verifier for the given OAuth client ID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: tokeninfoEndpoint,
	}
}

type tokeninfoResponse struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verify implements TokenVerifier.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (GoogleIdentity, error) {
	endpoint := fmt.Sprintf("%s?id_token=%s", v.endpoint, url.QueryEscape(idToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("call tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleIdentity{}, ErrGoogleTokenInvalid
	}

	var info tokeninfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleIdentity{}, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if info.Aud != v.clientID || info.Sub == "" || info.Email == "" {
		return GoogleIdentity{}, ErrGoogleTokenInvalid
	}

	identity := GoogleIdentity{
		Subject: info.Sub,
		Email:   info.Email,
		Name:    info.Name,
	}
	if info.Picture != "" {
		identity.Picture = &info.Picture
	}
	return identity, nil
}
