package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/rcconfig"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/repository"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/secretbox"
)

// SessionService turns uploaded configuration text into TTL-bound sessions.
// The plaintext never leaves the request: only the sealed blob is persisted.
type SessionService struct {
	store  repository.SessionStore
	cfg    config.Config
	logger *zap.Logger
}

// NewSessionService wires the session service.
func NewSessionService(store repository.SessionStore, cfg config.Config, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.L()
	}
	return &SessionService{store: store, cfg: cfg, logger: logger}
}

// CreateSessionOutput describes a newly created session.
type CreateSessionOutput struct {
	SessionID string
	TTL       time.Duration
	Remotes   []string
}

// Create validates the configuration text, seals it, and stores it under a
// fresh opaque session id. share selects the longer TTL policy used when
// download links must outlive the browsing session.
func (s *SessionService) Create(ctx context.Context, configText string, share bool) (*CreateSessionOutput, error) {
	parsed, err := rcconfig.Parse(configText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoUsableRemote, err)
	}

	var usable []string
	for _, name := range parsed.Remotes() {
		remote, ok := parsed.Remote(name)
		if !ok || remote.Kind != domain.KindDrive || remote.Token == "" {
			continue
		}
		usable = append(usable, name)
	}
	if len(usable) == 0 {
		return nil, domain.ErrNoUsableRemote
	}

	blob, err := secretbox.Seal(configText, s.cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("seal session: %w", err)
	}

	ttl := s.cfg.SessionTTL
	if share {
		ttl = s.cfg.ShareTTL
	}

	id := uuid.NewString()
	if err := s.store.Put(ctx, id, blob, ttl); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session_id", id),
		zap.Int("remotes", len(usable)),
		zap.Duration("ttl", ttl),
	)

	return &CreateSessionOutput{SessionID: id, TTL: ttl, Remotes: usable}, nil
}
