package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Provider verifies access tokens and issues sessions at the external auth
// service.
type Provider interface {
	// VerifyToken confirms the access token is cryptographically valid and
	// unexpired, returning the identity it belongs to. Expected failures
	// return ErrSessionInvalid; transport faults return
	// ErrProviderUnavailable.
	VerifyToken(ctx context.Context, accessToken string) (*Identity, error)

	// IssueSession creates a session for a verified user and returns the
	// access and refresh tokens to transport via cookies.
	IssueSession(ctx context.Context, userID, email string) (accessToken, refreshToken string, err error)
}

// HTTPProvider talks to the auth service over its REST interface.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPProviderConfig holds the auth service connection settings.
type HTTPProviderConfig struct {
	BaseURL string `env:"AUTH_BASE_URL,required"`
	APIKey  string `env:"AUTH_API_KEY,required"`
}

// NewHTTPProvider creates a provider client. The http.Client may carry a
// Timeout; the validator additionally bounds every call via context.
func NewHTTPProvider(cfg HTTPProviderConfig, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

type providerUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyToken resolves the access token to its user via GET /auth/v1/user.
func (p *HTTPProvider) VerifyToken(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var user providerUser
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, errors.Join(ErrProviderUnavailable, err)
		}
		if user.ID == "" {
			return nil, ErrSessionInvalid
		}
		return &Identity{UserID: user.ID, Email: user.Email}, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrSessionInvalid

	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrProviderUnavailable, resp.StatusCode)
	}
}

type issuedSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IssueSession creates a session for the user via the admin token endpoint.
func (p *HTTPProvider) IssueSession(ctx context.Context, userID, email string) (string, string, error) {
	body := url.Values{
		"user_id": {userID},
		"email":   {email},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/v1/admin/sessions", strings.NewReader(body.Encode()))
	if err != nil {
		return "", "", errors.Join(ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", errors.Join(ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", fmt.Errorf("%w: unexpected status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var issued issuedSession
	if err := json.NewDecoder(resp.Body).Decode(&issued); err != nil {
		return "", "", errors.Join(ErrProviderUnavailable, err)
	}

	return issued.AccessToken, issued.RefreshToken, nil
}
