package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/cache"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/drive"
	oauthadapter "github.com/ajithvnr2001/gdrive-aggregator/internal/adapter/oauth"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/config"
	httptransport "github.com/ajithvnr2001/gdrive-aggregator/internal/http"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/http/handler"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/middleware"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/repository"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/server"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/service"
	"github.com/ajithvnr2001/gdrive-aggregator/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newRedisClient,
			newSessionStore,
			newRefresher,
			newDriveClient,
			newSessionService,
			newCredentialService,
			handler.NewSessionHandler,
			newDriveHandler,
			newDownloadHandler,
			newRateLimiter,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newSessionStore(client redis.UniversalClient) repository.SessionStore {
	return cacheadapter.NewRedisSessionStore(client)
}

func newRefresher(cfg config.Config) oauthadapter.Refresher {
	return oauthadapter.NewHTTPRefresher(cfg.TokenEndpoint, &http.Client{Timeout: cfg.UpstreamTimeout})
}

func newDriveClient(cfg config.Config) *drive.Client {
	// No client-level timeout: single-shot calls are bounded by request
	// contexts and content streams must be allowed to run long.
	return drive.NewClient(cfg.DriveEndpoint, &http.Client{})
}

func newSessionService(store repository.SessionStore, cfg config.Config, logger *zap.Logger) *service.SessionService {
	return service.NewSessionService(store, cfg, logger)
}

func newCredentialService(store repository.SessionStore, refresher oauthadapter.Refresher, cfg config.Config, logger *zap.Logger) *service.CredentialService {
	return service.NewCredentialService(store, refresher, cfg, logger)
}

func newDriveHandler(credentials *service.CredentialService, driveClient *drive.Client, cfg config.Config) *handler.DriveHandler {
	return handler.NewDriveHandler(credentials, driveClient, cfg)
}

func newDownloadHandler(credentials *service.CredentialService, driveClient *drive.Client, cfg config.Config, logger *zap.Logger) *handler.DownloadHandler {
	return handler.NewDownloadHandler(credentials, driveClient, cfg, logger)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
