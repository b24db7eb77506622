package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/secretbox"
)

const validConfig = `[acct1]
type = drive
token = {"access_token":"A1","refresh_token":"R1","expiry":"2030-01-01T00:00:00Z"}
`

func newSessionService(store *memorySessionStore) *SessionService {
	cfg := config.Config{
		SecretKey:  "harness-key",
		SessionTTL: 24 * time.Hour,
		ShareTTL:   7 * 24 * time.Hour,
	}
	return NewSessionService(store, cfg, zap.NewNop())
}

func TestCreateSealsAndStores(t *testing.T) {
	store := newMemorySessionStore()
	svc := newSessionService(store)

	out, err := svc.Create(context.Background(), validConfig, false)
	require.NoError(t, err)
	require.Equal(t, []string{"acct1"}, out.Remotes)
	require.Equal(t, 24*time.Hour, out.TTL)

	// Session ids are opaque 128-bit values.
	_, err = uuid.Parse(out.SessionID)
	require.NoError(t, err)

	// The stored value is ciphertext that opens back to the uploaded text.
	blob, err := store.Get(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.NotContains(t, blob, "access_token")

	plaintext, err := secretbox.Open(blob, "harness-key")
	require.NoError(t, err)
	require.Equal(t, validConfig, plaintext)
	require.Equal(t, 24*time.Hour, store.lastTTL(out.SessionID))
}

func TestCreateShareUsesLongerTTL(t *testing.T) {
	store := newMemorySessionStore()
	svc := newSessionService(store)

	out, err := svc.Create(context.Background(), validConfig, true)
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, out.TTL)
	require.Equal(t, 7*24*time.Hour, store.lastTTL(out.SessionID))
}

func TestCreateDistinctSessionsPerUpload(t *testing.T) {
	store := newMemorySessionStore()
	svc := newSessionService(store)

	first, err := svc.Create(context.Background(), validConfig, false)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validConfig, false)
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)
}

func TestCreateRejectsUnusableConfig(t *testing.T) {
	store := newMemorySessionStore()
	svc := newSessionService(store)

	cases := []string{
		"[bucket]\ntype = s3\n",                // no drive remote
		"[acct1]\ntype = drive\n",              // drive remote without token
		"not a sectioned config at all [oops:", // unparseable
	}
	for _, text := range cases {
		_, err := svc.Create(context.Background(), text, false)
		require.ErrorIs(t, err, domain.ErrNoUsableRemote, "config %q", text)
		require.Zero(t, store.writes)
	}
}
