package secretbox_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/secretbox"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plaintexts := []string{
		"",
		"x",
		"[acct1]\ntype = drive\ntoken = {\"access_token\":\"A1\"}\n",
	}

	for _, p := range plaintexts {
		blob, err := secretbox.Seal(p, "unit-test-key")
		require.NoError(t, err)

		got, err := secretbox.Open(blob, "unit-test-key")
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
}

func TestSealIsNonDeterministic(t *testing.T) {
	first, err := secretbox.Seal("same plaintext", "key")
	require.NoError(t, err)
	second, err := secretbox.Seal("same plaintext", "key")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	blob, err := secretbox.Seal("secret config", "key-one")
	require.NoError(t, err)

	_, err = secretbox.Open(blob, "key-two")
	require.ErrorIs(t, err, secretbox.ErrIntegrity)
}

func TestOpenRejectsTampering(t *testing.T) {
	blob, err := secretbox.Seal("secret config", "key")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(blob)
	require.NoError(t, err)

	// Flipping any single byte must fail the integrity check.
	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01

		_, err := secretbox.Open(base64.RawURLEncoding.EncodeToString(mutated), "key")
		require.ErrorIs(t, err, secretbox.ErrIntegrity, "byte %d", i)
	}
}

func TestOpenRejectsTruncatedBlob(t *testing.T) {
	_, err := secretbox.Open(base64.RawURLEncoding.EncodeToString([]byte("short")), "key")
	require.ErrorIs(t, err, secretbox.ErrIntegrity)

	_, err = secretbox.Open("not!base64%", "key")
	require.ErrorIs(t, err, secretbox.ErrIntegrity)
}
