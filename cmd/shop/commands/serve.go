package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marshallshelly/pebble-shop/internal/config"
	"github.com/marshallshelly/pebble-shop/internal/database"
	"github.com/marshallshelly/pebble-shop/internal/httpapi"
	"github.com/marshallshelly/pebble-shop/internal/logging"
	"github.com/marshallshelly/pebble-shop/internal/messages"
	"github.com/marshallshelly/pebble-shop/internal/metrics"
	"github.com/marshallshelly/pebble-shop/internal/repository"
	"github.com/marshallshelly/pebble-shop/internal/service"
	"github.com/marshallshelly/pebble-shop/internal/session"
	"github.com/marshallshelly/pebble-shop/pkg/migration"
)

const sweepInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server until SIGINT or SIGTERM, then drain in-flight requests.

Examples:
  shop serve --addr :8000
  shop serve --session-backend redis --redis-url redis://localhost:6379/0
  shop serve --reset-schema        # Drop and recreate all tables first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.ResetSchema {
		plan, err := schemaPlan()
		if err != nil {
			return err
		}
		if err := migration.NewExecutor(db).Reset(ctx, plan); err != nil {
			return fmt.Errorf("failed to reset schema: %w", err)
		}
		log.Warn("schema reset", zap.Strings("tables", plan.TableNames()))
	}

	store, closeStore, err := sessionStore(ctx, log)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter := httpapi.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	go limiter.RunCleanup(ctx, sweepInterval)

	gin.SetMode(gin.ReleaseMode)
	router, err := httpapi.NewRouter(httpapi.Deps{
		Log:      log,
		Provider: database.NewProvider(db, log),
		Pinger:   db,
		Sessions: session.NewManager(store, session.CookieOptions{
			Name:   cfg.CookieName,
			MaxAge: cfg.SessionTTL,
			Secure: cfg.CookieSecure,
		}, log),
		Metrics:      metrics.New(),
		Messages:     messages.NewStore(),
		Limiter:      limiter,
		Repositories: repository.New,
		Service:      []service.Option{service.WithHasher(service.BcryptHasher{Cost: cfg.BcryptCost})},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sessionStore builds the configured session backend and its cleanup.
func sessionStore(ctx context.Context, log *zap.Logger) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionRedis:
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis sessions")
		return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
	default:
		store := session.NewMemoryStore(cfg.SessionTTL)
		go store.RunSweeper(ctx, sweepInterval)
		return store, func() {}, nil
	}
}
