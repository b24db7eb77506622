package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	oauthadapter "github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/oauth"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
)

func TestRefreshSuccess(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"refresh_token": r.PostFormValue("refresh_token"),
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A2","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	refresher := oauthadapter.NewHTTPRefresher(srv.URL, srv.Client())
	before := time.Now()

	out, err := refresher.Refresh(context.Background(), "R1", "client-id", "client-secret")
	require.NoError(t, err)
	require.Equal(t, "A2", out.AccessToken)
	require.Equal(t, "Bearer", out.TokenType)
	require.Empty(t, out.RefreshToken)

	require.Equal(t, "refresh_token", gotForm["grant_type"])
	require.Equal(t, "R1", gotForm["refresh_token"])
	require.Equal(t, "client-id", gotForm["client_id"])
	require.Equal(t, "client-secret", gotForm["client_secret"])

	// Expiry is now + expires_in minus a small skew.
	require.WithinDuration(t, before.Add(time.Hour), out.Expiry, 30*time.Second)
}

func TestRefreshDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	refresher := oauthadapter.NewHTTPRefresher(srv.URL, srv.Client())
	_, err := refresher.Refresh(context.Background(), "revoked", "id", "secret")
	require.ErrorIs(t, err, domain.ErrRefreshDenied)
}

func TestRefreshMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"expires_in":3600}`))
	}))
	defer srv.Close()

	refresher := oauthadapter.NewHTTPRefresher(srv.URL, srv.Client())
	_, err := refresher.Refresh(context.Background(), "R1", "id", "secret")
	require.ErrorIs(t, err, domain.ErrRefreshDenied)
}

func TestRefreshUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	refresher := oauthadapter.NewHTTPRefresher(srv.URL, nil)
	_, err := refresher.Refresh(context.Background(), "R1", "id", "secret")
	require.ErrorIs(t, err, domain.ErrRefreshUnreachable)
}
