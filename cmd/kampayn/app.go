package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Kampayn/kampayn-be/internal/db"
	"github.com/Kampayn/kampayn-be/internal/handlers"
	"github.com/Kampayn/kampayn-be/internal/logger"
	"github.com/Kampayn/kampayn-be/internal/repository/postgres"
	"github.com/Kampayn/kampayn-be/internal/service/auth"
	"github.com/Kampayn/kampayn-be/internal/service/auth/tokenmanager"
	"github.com/Kampayn/kampayn-be/internal/service/campaign"
	"github.com/Kampayn/kampayn-be/internal/service/identity"
	"github.com/Kampayn/kampayn-be/internal/service/ratelimit"
	"github.com/Kampayn/kampayn-be/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Closed after server stopped
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: logger}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	authService, err := newAuthService(c, pool, logger, app)
	if err != nil {
		app.Close()
		return nil, err
	}

	// Initialize repositories and services
	storage := postgres.NewStorage(pool)
	userService := user.NewService(storage)
	campaignService := campaign.NewService(storage)

	app.Handler = handlers.NewRouter(authService, userService, campaignService, logger)

	return app, nil
}

func newAuthService(c *Config, pool *pgxpool.Pool, l logger.Logger, app *ServerApp) (*auth.AuthService, error) {
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	hasher, err := auth.NewHasher(c.PasswordHasher)
	if err != nil {
		return nil, err
	}

	var verifier identity.Verifier = identity.Disabled{}
	if c.FirebaseProjectID != "" {
		verifier, err = identity.NewFirebaseVerifier(identity.FirebaseConfig{
			ProjectID: c.FirebaseProjectID,
			Timeout:   c.IdentityTimeout,
		}, l.With("component", "identity"))
		if err != nil {
			return nil, fmt.Errorf("error while creating identity verifier. Err: %w", err)
		}
	} else {
		l.Warn("Identity provider is not configured, social login disabled")
	}

	var throttle ratelimit.Limiter = ratelimit.Noop{}
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, func() { _ = client.Close() })

		throttle, err = ratelimit.NewRedis(client, ratelimit.Config{
			MaxAttempts: c.LoginMaxAttempts,
			Window:      c.LoginWindow,
		}, l.With("component", "ratelimit"))
		if err != nil {
			return nil, fmt.Errorf("error while creating login throttle. Err: %w", err)
		}
	}

	authService, err := auth.NewService(auth.Config{
		Hasher:               hasher,
		Identity:             verifier,
		Throttle:             throttle,
		RequireIdentityToken: c.LoginRequireIDToken,
		Logger:               l.With("component", "auth"),
	}, tokenManager, postgres.NewStorage(pool))
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	return authService, nil
}

// Close releases connections in reverse order
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
