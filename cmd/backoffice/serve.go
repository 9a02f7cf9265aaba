package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cygnusgroup/backoffice"
	fiberadapter "github.com/cygnusgroup/backoffice/adapters/fiber"
	"github.com/cygnusgroup/backoffice/adapters/gotrue"
	pgxadapter "github.com/cygnusgroup/backoffice/adapters/pgx"
	redisadapter "github.com/cygnusgroup/backoffice/adapters/redis"
	"github.com/cygnusgroup/backoffice/core"
	"github.com/cygnusgroup/backoffice/pkg/cache"
	"github.com/cygnusgroup/backoffice/pkg/config"
	"github.com/cygnusgroup/backoffice/pkg/crypto"
	"github.com/cygnusgroup/backoffice/services"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP login service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${respHeader:" + fiber.HeaderXRequestID + "}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}",

		// Request details
		"${method}|${path}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

// newHTTPApp builds the fiber app with request ids and access logging.
func newHTTPApp() *fiber.App {
	app := fiber.New(fiber.Config{AppName: "backoffice"})
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     logFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "UTC",
	}))
	return app
}

func serve(ctx context.Context) error {
	pool, err := pgxadapter.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	db := pgxadapter.New(pool)

	sessions, closeSessions, err := sessionStore(ctx)
	if err != nil {
		return err
	}
	defer closeSessions()

	verifier, local, err := identityProvider(db)
	if err != nil {
		return err
	}

	app := newHTTPApp()
	httpAdapter := fiberadapter.New(app, fiberadapter.Config{CookieSecure: cfg.CookieSecure}).
		Handle(opRecentActivity, activityFeed(db))

	b, err := backoffice.New(backoffice.Config{
		Profiles:      db.Profiles(),
		Verifier:      verifier,
		Sessions:      sessions,
		Activity:      db,
		HTTP:          httpAdapter,
		Endpoints:     []backoffice.EndpointProvider{dashboardEndpoints{}},
		SessionConfig: &backoffice.SessionConfig{MaxAge: cfg.SessionMaxAge},
		CallTimeout:   cfg.CallTimeout,
		LoginRedirect: cfg.LoginRedirect,
		BasePath:      cfg.BasePath,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("could not create backoffice instance: %w", err)
	}
	defer b.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("base_path", b.BasePath))
		return app.Listen(cfg.HTTPAddr, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		purgeLoop(gctx, b, sessions, local)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sessionStore picks redis when configured and the in-memory cache otherwise.
func sessionStore(ctx context.Context) (core.SessionStore, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		return backoffice.NewInMemoryCache(backoffice.CacheConfig{TTL: cfg.SessionMaxAge}), func() {}, nil
	}

	store, err := redisadapter.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// identityProvider returns the configured verifier. The local provider is
// also returned so its sessions can be purged.
func identityProvider(db *pgxadapter.Adapter) (core.CredentialVerifier, *services.LocalProvider, error) {
	switch cfg.IdentityProvider {
	case config.ProviderGoTrue:
		p, err := gotrue.New(gotrue.Config{
			URL:     cfg.GoTrueURL,
			APIKey:  cfg.GoTrueAPIKey,
			Timeout: cfg.CallTimeout,
		})
		return p, nil, err
	default:
		p, err := services.NewLocalProvider(db, crypto.NewArgon2(), 0)
		return p, p, err
	}
}

func purgeLoop(ctx context.Context, b *backoffice.Backoffice, sessions core.SessionStore, local *services.LocalProvider) {
	if cfg.PurgeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := b.Purge(ctx); err != nil {
			logger.Warn("session purge failed", zap.Error(err))
		}
		if mem, ok := sessions.(*cache.InMemoryCache); ok {
			logger.Debug("session cache", zap.Any("stats", mem.Stats()))
		}
		if local != nil {
			n, err := local.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("provider session purge failed", zap.Error(err))
				continue
			}
			logger.Debug("purged provider sessions", zap.Int("count", n))
		}
	}
}
