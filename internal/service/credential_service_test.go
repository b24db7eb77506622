package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	oauthadapter "github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/oauth"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/repository"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/secretbox"
)

func TestResolveFreshToken(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(time.Hour)))

	out, err := h.service.Resolve(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.True(t, out.Fresh)
	require.Equal(t, "A1", out.AccessToken)
	require.Equal(t, "drive", out.Remote.Kind)
}

func TestResolveStaleToken(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(-time.Second)))

	out, err := h.service.Resolve(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.False(t, out.Fresh)
	require.Equal(t, "A1", out.AccessToken)
}

func TestResolveSessionExpired(t *testing.T) {
	h := newCredentialHarness(t)

	_, err := h.service.Resolve(context.Background(), "no-such-session", "acct1")
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestResolveSessionCorrupt(t *testing.T) {
	h := newCredentialHarness(t)
	require.NoError(t, h.store.Put(context.Background(), "sid", "bm90IGEgdmFsaWQgYmxvYg", time.Hour))

	_, err := h.service.Resolve(context.Background(), "sid", "acct1")
	require.ErrorIs(t, err, domain.ErrSessionCorrupt)
}

func TestResolveRemoteNotFound(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(time.Hour)))

	_, err := h.service.Resolve(context.Background(), sid, "missing")
	require.ErrorIs(t, err, domain.ErrRemoteNotFound)

	// A remote of the wrong kind is treated the same as an absent one.
	_, err = h.service.Resolve(context.Background(), sid, "bucket")
	require.ErrorIs(t, err, domain.ErrRemoteNotFound)
}

func TestResolveTokenMalformed(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, "[acct1]\ntype = drive\ntoken = not-json\n")

	_, err := h.service.Resolve(context.Background(), sid, "acct1")
	require.ErrorIs(t, err, domain.ErrTokenMalformed)
}

func TestAccessTokenFreshSkipsRefresh(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(time.Hour)))

	token, err := h.service.AccessToken(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.Equal(t, "A1", token)
	require.Zero(t, h.refresher.calls)
}

func TestAccessTokenRefreshesAndCommits(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(-time.Second)))
	h.refresher.result = &oauthadapter.RefreshResult{
		AccessToken: "A2",
		TokenType:   "Bearer",
		Expiry:      h.now.Add(time.Hour),
	}

	token, err := h.service.AccessToken(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.Equal(t, "A2", token)
	require.Equal(t, 1, h.refresher.calls)
	require.Equal(t, "R1", h.refresher.lastRefreshToken)

	// Refresh-then-use is idempotent: a subsequent resolve sees the
	// committed token, not the stale one.
	out, err := h.service.Resolve(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.True(t, out.Fresh)
	require.Equal(t, "A2", out.AccessToken)
	require.Equal(t, "R1", out.Token.RefreshToken)

	// The commit preserved the session's remaining TTL.
	require.Equal(t, repository.KeepTTL, h.store.lastTTL(sid))
}

func TestAccessTokenUsesDefaultClientPair(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(-time.Second)))
	h.refresher.result = &oauthadapter.RefreshResult{AccessToken: "A2", Expiry: h.now.Add(time.Hour)}

	_, err := h.service.AccessToken(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.Equal(t, "default-id", h.refresher.lastClientID)
	require.Equal(t, "default-secret", h.refresher.lastClientSecret)
}

func TestAccessTokenPrefersRemoteClientPair(t *testing.T) {
	h := newCredentialHarness(t)
	text := fmt.Sprintf(`[acct1]
type = drive
client_id = own-id
client_secret = own-secret
token = {"access_token":"A1","refresh_token":"R1","expiry":"%s"}
`, h.now.Add(-time.Second).Format(time.RFC3339))
	sid := h.seedSession(t, text)
	h.refresher.result = &oauthadapter.RefreshResult{AccessToken: "A2", Expiry: h.now.Add(time.Hour)}

	_, err := h.service.AccessToken(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.Equal(t, "own-id", h.refresher.lastClientID)
	require.Equal(t, "own-secret", h.refresher.lastClientSecret)
}

func TestAccessTokenRefreshDeniedWritesNothing(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(-time.Second)))
	h.refresher.err = domain.ErrRefreshDenied
	writesBefore := h.store.writes

	_, err := h.service.AccessToken(context.Background(), sid, "acct1")
	require.ErrorIs(t, err, domain.ErrRefreshDenied)
	require.Equal(t, writesBefore, h.store.writes)
}

func TestAccessTokenRotatedRefreshTokenIsKept(t *testing.T) {
	h := newCredentialHarness(t)
	sid := h.seedSession(t, configWithExpiry(h.now.Add(-time.Second)))
	h.refresher.result = &oauthadapter.RefreshResult{
		AccessToken:  "A2",
		RefreshToken: "R2",
		Expiry:       h.now.Add(time.Hour),
	}

	_, err := h.service.AccessToken(context.Background(), sid, "acct1")
	require.NoError(t, err)

	out, err := h.service.Resolve(context.Background(), sid, "acct1")
	require.NoError(t, err)
	require.Equal(t, "R2", out.Token.RefreshToken)
}

// ---- Test harness and fakes ----

type credentialHarness struct {
	service   *CredentialService
	store     *memorySessionStore
	refresher *fakeRefresher
	cfg       config.Config
	now       time.Time
}

func newCredentialHarness(t *testing.T) *credentialHarness {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := config.Config{
		SecretKey:          "harness-key",
		GoogleClientID:     "default-id",
		GoogleClientSecret: "default-secret",
		SessionTTL:         24 * time.Hour,
	}
	store := newMemorySessionStore()
	refresher := &fakeRefresher{}

	svc := NewCredentialService(store, refresher, cfg, zap.NewNop())
	svc.now = func() time.Time { return now }

	return &credentialHarness{service: svc, store: store, refresher: refresher, cfg: cfg, now: now}
}

func (h *credentialHarness) seedSession(t *testing.T, configText string) string {
	t.Helper()
	blob, err := secretbox.Seal(configText, h.cfg.SecretKey)
	require.NoError(t, err)
	sid := "session-under-test"
	require.NoError(t, h.store.Put(context.Background(), sid, blob, h.cfg.SessionTTL))
	return sid
}

func configWithExpiry(expiry time.Time) string {
	return fmt.Sprintf(`[acct1]
type = drive
token = {"access_token":"A1","token_type":"Bearer","refresh_token":"R1","expiry":"%s"}

[bucket]
type = s3
`, expiry.Format(time.RFC3339))
}

type memorySessionStore struct {
	mu     sync.Mutex
	blobs  map[string]string
	ttls   map[string]time.Duration
	writes int
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{blobs: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *memorySessionStore) Put(_ context.Context, id, blob string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = blob
	m.ttls[id] = ttl
	m.writes++
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return blob, nil
}

func (m *memorySessionStore) lastTTL(id string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[id]
}

type fakeRefresher struct {
	result           *oauthadapter.RefreshResult
	err              error
	calls            int
	lastRefreshToken string
	lastClientID     string
	lastClientSecret string
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken, clientID, clientSecret string) (*oauthadapter.RefreshResult, error) {
	f.calls++
	f.lastRefreshToken = refreshToken
	f.lastClientID = clientID
	f.lastClientSecret = clientSecret
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
