// Package oauth encapsulates outbound HTTP calls to the identity provider.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
)

// GoogleTokenEndpoint is the default token endpoint for drive remotes.
const GoogleTokenEndpoint = "https://oauth2.googleapis.com/token"

// expirySkew is subtracted from the provider-declared lifetime so a token is
// never presented right at its expiry edge.
const expirySkew = 10 * time.Second

// RefreshResult carries a freshly minted access token and its absolute expiry.
// RefreshToken is non-empty only when the provider rotated it.
type RefreshResult struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Expiry       time.Time
}

// Refresher mints fresh access tokens from refresh tokens.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*RefreshResult, error)
}

// HTTPRefresher is the default Refresher against a provider token endpoint.
type HTTPRefresher struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

var _ Refresher = (*HTTPRefresher)(nil)

// NewHTTPRefresher constructs the default Refresher. An empty endpoint
// selects the Google token endpoint; a nil client gets a bounded default.
func NewHTTPRefresher(endpoint string, client *http.Client) *HTTPRefresher {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = GoogleTokenEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRefresher{endpoint: endpoint, httpClient: client, now: time.Now}
}

// Refresh performs exactly one refresh-token grant against the token
// endpoint. A non-success response maps to domain.ErrRefreshDenied, a
// transport failure to domain.ErrRefreshUnreachable.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*RefreshResult, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", clientID)
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRefreshUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrRefreshUnreachable, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status=%d", domain.ErrRefreshDenied, resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrRefreshDenied, err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: response missing access token", domain.ErrRefreshDenied)
	}

	lifetime := time.Duration(payload.ExpiresIn) * time.Second
	if lifetime > expirySkew {
		lifetime -= expirySkew
	}

	return &RefreshResult{
		AccessToken:  payload.AccessToken,
		TokenType:    payload.TokenType,
		RefreshToken: payload.RefreshToken,
		Expiry:       r.now().Add(lifetime),
	}, nil
}
