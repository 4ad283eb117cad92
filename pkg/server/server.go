// Package server serves the org chart API.
//
// The server keeps the current directory snapshot in memory and builds the
// hierarchy per request, so a viewer's top-user override and the current
// filter settings always apply. A change to the source file triggers a
// reload.
//
// # Routes
//
//	GET  /api/employees               hierarchy as nested JSON
//	GET  /api/employee/{id}           one employee
//	GET  /api/search?q=               up to 10 matches
//	GET  /api/settings                display settings
//	POST /api/settings                merge settings (admin)
//	GET  /api/auth-check              200 when logged in, 401 otherwise
//	POST /api/login, /api/logout
//	POST /api/set-multiline-enabled   compact teams toggle (admin)
//	POST /api/set-top-user            per-viewer root override
//	POST /api/reset-all-settings      restore defaults (admin)
//	POST /api/update-now              reload the source (admin)
//	GET  /api/metadata/options        filter suggestions (admin)
//	GET  /api/export-xlsx             spreadsheet export
//	GET  /api/export/{format}         chart export (svg, png, pdf, json, dot)
//	GET  /api/photo/{id}              profile photo or default icon
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/org/source"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/session"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":5000"

// Config wires the server to its stores.
type Config struct {
	Addr string

	// Source provides the directory snapshot.
	Source source.Source

	Settings settings.Store
	Sessions session.Store

	// Runner renders exports. Nil uses an uncached runner that reads
	// photos from PhotoDir.
	Runner *pipeline.Runner

	// AdminPasswordHash is the bcrypt hash of the admin password. Empty
	// disables login.
	AdminPasswordHash string

	// PhotoDir holds profile photos named {id}.jpg.
	PhotoDir string

	// EnvTopUser pins the root unless a viewer overrides it.
	EnvTopUser string

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	// Watch reloads the source when its file changes.
	Watch bool

	Logger *log.Logger
}

// Server is the org chart HTTP server.
type Server struct {
	cfg      Config
	logger   *log.Logger
	router   chi.Router
	settings settings.Store
	sessions session.Store
	runner   *pipeline.Runner

	mu       sync.RWMutex
	records  []*org.Employee
	loadedAt time.Time

	now func() time.Time
}

// New returns a server for cfg. Call [Server.Reload] before serving.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New("server: no source configured")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Settings == nil {
		cfg.Settings = settings.NewMemoryStore()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	if cfg.Runner == nil {
		var exportOpts []export.Option
		if cfg.PhotoDir != "" {
			exportOpts = append(exportOpts, export.WithLoader(export.DirLoader{Dir: cfg.PhotoDir}))
		}
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger, exportOpts...)
	}
	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		settings: cfg.Settings,
		sessions: cfg.Sessions,
		runner:   cfg.Runner,
		now:      time.Now,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Reload reads the source again and swaps the snapshot. The previous
// snapshot stays in place when the read fails.
func (s *Server) Reload(ctx context.Context) (int, error) {
	records, err := s.cfg.Source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("reload %s: %w", s.cfg.Source.Path(), err)
	}
	s.mu.Lock()
	s.records = records
	s.loadedAt = s.now()
	s.mu.Unlock()
	s.logger.Info("loaded directory", "employees", len(records), "source", s.cfg.Source.Path())
	return len(records), nil
}

// snapshot returns the current records.
func (s *Server) snapshot() ([]*org.Employee, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.loadedAt
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.cfg.Watch && s.cfg.Source.Path() != "" {
		w, err := newWatcher(s.cfg.Source.Path(), func() {
			if _, err := s.Reload(context.Background()); err != nil {
				s.logger.Error("reload failed", "error", err)
			}
		}, s.logger)
		if err != nil {
			s.logger.Warn("file watching disabled", "error", err)
		} else {
			defer w.Close()
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases the stores.
func (s *Server) Close() error {
	return errors.Join(s.settings.Close(), s.sessions.Close(), s.runner.Close())
}

// staticSource serves a snapshot held in memory to the pipeline.
type staticSource []*org.Employee

func (r staticSource) Load(ctx context.Context) ([]*org.Employee, error) {
	if len(r) == 0 {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "no employee data available")
	}
	return r, nil
}

func (staticSource) Path() string { return "" }

var _ source.Source = staticSource(nil)
