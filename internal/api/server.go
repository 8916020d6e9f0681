// Package api exposes the bank transaction REST surface over net/http.
//
// Routes, relative to Config.BasePath:
//
//	GET  /bank-transactions/by-user   filtered page ordered by date, user
//	GET  /bank-transactions/by-bank   filtered page ordered by date, bank code
//	POST /bank-transactions/persist-csv  multipart upload, part "file", text/csv
//
// GET /healthz sits outside the base path. Failures are answered with an
// ApiError body.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-bank-transaction-service/internal/ingest"
	"golang-bank-transaction-service/internal/models"
	"golang-bank-transaction-service/internal/query"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

// Config holds HTTP server settings
type Config struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	BasePath        string        `json:"base_path" yaml:"base_path" mapstructure:"base_path"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	DefaultPageSize int           `json:"default_page_size" yaml:"default_page_size" mapstructure:"default_page_size"`
	MaxPageSize     int           `json:"max_page_size" yaml:"max_page_size" mapstructure:"max_page_size"`
}

// DefaultConfig returns the default HTTP settings
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		BasePath:        "/api/v1",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		DefaultPageSize: 20,
		MaxPageSize:     2000,
	}
}

// Validate checks if the HTTP configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.BasePath != "" && (!strings.HasPrefix(c.BasePath, "/") || strings.HasSuffix(c.BasePath, "/")) {
		return fmt.Errorf("base path must start and must not end with '/': %q", c.BasePath)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default page size must be at least 1, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("max page size %d is below the default page size %d", c.MaxPageSize, c.DefaultPageSize)
	}
	return nil
}

// Ingester loads an uploaded CSV stream
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader) (*ingest.Summary, error)
}

// Finder runs the filtered page lookups
type Finder interface {
	FindByUser(ctx context.Context, filter query.UserFilter, page models.PageRequest) (*models.PageResult[*models.BankTransaction], error)
	FindByBank(ctx context.Context, filter query.BankFilter, page models.PageRequest) (*models.PageResult[*models.BankTransaction], error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the REST front of the service
type Server struct {
	config   Config
	ingester Ingester
	finder   Finder
	pinger   Pinger
	logger   logger.Logger
	handler  http.Handler
	now      func() time.Time
}

// NewServer wires the handlers. pinger may be nil, in which case /healthz
// always reports ok.
func NewServer(config *Config, ingester Ingester, finder Finder, pinger Pinger, log logger.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("http", config.Addr, err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	s := &Server{
		config:   *config,
		ingester: ingester,
		finder:   finder,
		pinger:   pinger,
		logger:   log.WithComponent("api"),
		now:      time.Now,
	}

	base := config.BasePath + "/bank-transactions"
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base+"/by-user", s.handleByUser)
	mux.HandleFunc("GET "+base+"/by-bank", s.handleByBank)
	mux.HandleFunc("POST "+base+"/persist-csv", s.handlePersistCSV)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.handler = s.withRequestID(s.withLogging(s.withRecovery(mux)))
	return s, nil
}

// Handler returns the root handler including middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logger.Fields{
			"addr":      s.config.Addr,
			"base_path": s.config.BasePath,
		}).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.InternalError("serve", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.InternalError("shutdown", err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := newApiError(err, s.now())

	log := requestLogger(r.Context(), s.logger).WithError(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed")
	} else {
		log.Warn("Request rejected")
	}

	writeJSON(w, status, body)
}
