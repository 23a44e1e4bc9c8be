// Package server holds the application container: configuration, loggers,
// the data access layer and the net/http server that serves the router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/turismo-api/internal/config"
	"github.com/deppfellow/turismo-api/internal/database"
	loggerPkg "github.com/deppfellow/turismo-api/internal/logger"
	"github.com/rs/zerolog"
)

// startupPingTimeout bounds the connectivity check done by New.
const startupPingTimeout = 5 * time.Second

// Server is shared by every handler and middleware.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// LoggerService wraps the New Relic application; it may be nil, and
	// its application is nil when no license key is configured.
	LoggerService *loggerPkg.LoggerService

	// DB runs single statements, each on its own connection.
	DB *database.Database

	httpServer *http.Server
}

// New opens the data access layer and pings the database once. A failed
// ping only warns: each request connects on its own, so the service can
// come up before the database does.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()

	if _, err := db.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("database not reachable at startup, continuing")
	} else {
		logger.Info().Msg("connected to the database")
	}

	return NewWithDatabase(cfg, logger, loggerService, db), nil
}

// NewWithDatabase builds a Server around an existing data access layer.
func NewWithDatabase(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService, db *database.Database) *Server {
	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
	}
}

// SetupHTTPServer prepares the listener for handler. Timeouts in the
// config are whole seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving requests until the server stops. Stopping through
// Shutdown returns nil.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("SetupHTTPServer was not called")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("api_prefix", s.Config.Server.APIPrefix).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown lets in-flight requests finish until ctx expires, then flushes
// the New Relic agent.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.LoggerService != nil {
		s.LoggerService.Shutdown()
	}

	return nil
}
