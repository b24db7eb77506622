package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	oauthadapter "github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/oauth"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/rcconfig"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/repository"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/secretbox"
)

// Resolution is the outcome of a pure credential lookup: no network call,
// no store write.
type Resolution struct {
	Remote      domain.Remote
	Token       domain.Token
	AccessToken string
	Fresh       bool
}

// CredentialService is the single path from a session id to a usable bearer
// token. Every operation that touches the Drive API goes through it, so the
// expiry check lives in exactly one place.
type CredentialService struct {
	store     repository.SessionStore
	refresher oauthadapter.Refresher
	cfg       config.Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewCredentialService wires the credential service.
func NewCredentialService(store repository.SessionStore, refresher oauthadapter.Refresher, cfg config.Config, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.L()
	}
	return &CredentialService{
		store:     store,
		refresher: refresher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve loads and decrypts the session, locates the named remote, and
// reports whether its cached access token is still valid.
func (s *CredentialService) Resolve(ctx context.Context, sessionID, remoteName string) (*Resolution, error) {
	_, remote, token, err := s.load(ctx, sessionID, remoteName)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Remote:      remote,
		Token:       token,
		AccessToken: token.AccessToken,
		Fresh:       token.Valid(s.now()),
	}, nil
}

// AccessToken returns a bearer token usable against the Drive API,
// refreshing and committing first when the cached token is stale.
//
// Two concurrent requests observing the same stale token will each refresh;
// the last commit wins. That costs one extra refresh round-trip, never
// correctness, because every request re-resolves from the store.
func (s *CredentialService) AccessToken(ctx context.Context, sessionID, remoteName string) (string, error) {
	parsed, remote, token, err := s.load(ctx, sessionID, remoteName)
	if err != nil {
		return "", err
	}
	if token.Valid(s.now()) {
		return token.AccessToken, nil
	}

	clientID, clientSecret := remote.ClientID, remote.ClientSecret
	if clientID == "" {
		clientID, clientSecret = s.cfg.GoogleClientID, s.cfg.GoogleClientSecret
	}

	refreshed, err := s.refresher.Refresh(ctx, token.RefreshToken, clientID, clientSecret)
	if err != nil {
		return "", err
	}

	// Commit before use: the refreshed token must be visible to subsequent
	// requests, or every one of them pays another refresh round-trip.
	if err := s.commit(ctx, sessionID, parsed, remote.Name, token, refreshed); err != nil {
		return "", err
	}

	s.logger.Info("access token refreshed",
		zap.String("session_id", sessionID),
		zap.String("remote", remote.Name),
		zap.Time("expiry", refreshed.Expiry),
	)

	return refreshed.AccessToken, nil
}

// load is the read-and-decrypt step shared by Resolve and AccessToken.
func (s *CredentialService) load(ctx context.Context, sessionID, remoteName string) (*rcconfig.Config, domain.Remote, domain.Token, error) {
	blob, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Remote{}, domain.Token{}, domain.ErrSessionExpired
		}
		return nil, domain.Remote{}, domain.Token{}, fmt.Errorf("load session: %w", err)
	}

	plaintext, err := secretbox.Open(blob, s.cfg.SecretKey)
	if err != nil {
		return nil, domain.Remote{}, domain.Token{}, domain.ErrSessionCorrupt
	}

	parsed, err := rcconfig.Parse(plaintext)
	if err != nil {
		return nil, domain.Remote{}, domain.Token{}, fmt.Errorf("decode session config: %w", err)
	}

	remote, ok := parsed.Remote(remoteName)
	if !ok || remote.Kind != domain.KindDrive {
		return nil, domain.Remote{}, domain.Token{}, domain.ErrRemoteNotFound
	}

	token, err := domain.ParseToken(remote.Token)
	if err != nil {
		return nil, domain.Remote{}, domain.Token{}, err
	}

	return parsed, remote, token, nil
}

// commit rewrites the remote's token inside the full plaintext, re-seals,
// and overwrites the session blob while preserving its remaining TTL. This
// is the only path that mutates session content after creation.
func (s *CredentialService) commit(ctx context.Context, sessionID string, parsed *rcconfig.Config, remoteName string, old domain.Token, refreshed *oauthadapter.RefreshResult) error {
	next := domain.Token{
		AccessToken:  refreshed.AccessToken,
		TokenType:    refreshed.TokenType,
		RefreshToken: old.RefreshToken,
		Expiry:       refreshed.Expiry,
	}
	if refreshed.RefreshToken != "" {
		next.RefreshToken = refreshed.RefreshToken
	}

	tokenJSON, err := next.Encode()
	if err != nil {
		return err
	}
	if err := parsed.SetToken(remoteName, tokenJSON); err != nil {
		return err
	}

	plaintext, err := parsed.Encode()
	if err != nil {
		return err
	}

	blob, err := secretbox.Seal(plaintext, s.cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	if err := s.store.Put(ctx, sessionID, blob, repository.KeepTTL); err != nil {
		return fmt.Errorf("commit refreshed token: %w", err)
	}
	return nil
}
