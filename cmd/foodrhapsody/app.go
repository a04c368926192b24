package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/foodrhapsody/internal/db"
	"github.com/nkiryanov/foodrhapsody/internal/handlers"
	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
	"github.com/nkiryanov/foodrhapsody/internal/kvstore/postgres"
	"github.com/nkiryanov/foodrhapsody/internal/kvstore/sqlite"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/repository"
	"github.com/nkiryanov/foodrhapsody/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/foodrhapsody/internal/service/challenge"
	"github.com/nkiryanov/foodrhapsody/internal/service/foodnote"
	"github.com/nkiryanov/foodrhapsody/internal/service/oauth"
	"github.com/nkiryanov/foodrhapsody/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

// Service processing its namespace operations until context is done
type runner interface {
	Run(ctx context.Context) <-chan struct{}
}

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	services     []runner
	closeStorage func()
	logger       logger.Logger
}

func NewServerApp(ctx context.Context, c *Config, version string) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	accessSecret, refreshSecret, err := c.TokenSecrets()
	if err != nil {
		return nil, err
	}
	tokens, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	codec, err := kvstore.CodecByName(c.Codec)
	if err != nil {
		return nil, err
	}

	// Connect to the database and run migrations
	backend, closeStorage, err := openBackend(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories and services
	storage := repository.NewStorage(backend, codec)
	verifier := oauth.NewVerifier(oauth.Config{KakaoUserURL: c.KakaoUserURL}, nil, logger)

	userService := user.NewService(tokens, verifier, storage.User(), c.AdminEmails, logger)
	challengeService := challenge.NewService(storage.Challenge(), logger)
	foodnoteService := foodnote.NewService(storage.Foodnote(), logger)

	router := handlers.NewRouter(userService, challengeService, foodnoteService, logger, version)

	return &ServerApp{
		ListenAddr:   c.ListenAddr,
		Handler:      router,
		services:     []runner{userService, challengeService, foodnoteService},
		closeStorage: closeStorage,
		logger:       logger,
	}, nil
}

func openBackend(ctx context.Context, dsn string) (kvstore.Backend, func(), error) {
	switch {
	case db.IsSQLite(dsn):
		conn, err := db.OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.New(conn), func() { _ = conn.Close() }, nil
	case db.IsPostgres(dsn):
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	default:
		return nil, nil, errors.New("database uri has to start with postgres:// or sqlite://")
	}
}

// Run starts http server and closes gracefully on context cancellation
// Services are stopped and storage closed after server stopped accepting requests
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.closeStorage()

	servicesCtx, stopServices := context.WithCancel(context.Background())
	stopped := make([]<-chan struct{}, 0, len(s.services))
	for _, svc := range s.services {
		stopped = append(stopped, svc.Run(servicesCtx))
	}
	defer func() {
		stopServices()
		for _, done := range stopped {
			<-done
		}
		s.logger.Info("Services stopped")
	}()

	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
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

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
