// Package server serves the scanner over HTTP: a JSON API, a live scratch
// pad page and Prometheus metrics. With a watch directory it rescans text
// files as they change and pushes the results to open pages.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/portion/internal/scan"
	"github.com/leapstack-labs/portion/internal/server/notifier"
	"github.com/leapstack-labs/portion/internal/source"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/internal/watch"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/unit"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for the server.
type Config struct {
	Addr            string
	WatchDir        string
	SessionSecret   string
	ShutdownTimeout time.Duration
	Concurrency     int

	Parser *parser.Parser
	Store  state.Store // optional; documents are not kept without one
	Style  unit.Style
	Logger *slog.Logger
}

// Server is the HTTP server.
type Server struct {
	cfg          Config
	parser       *parser.Parser
	store        state.Store
	sessionStore *sessions.CookieStore
	notifier     *notifier.Notifier
	metrics      *Metrics
	logger       *slog.Logger
	handler      http.Handler
}

// NewServer creates a server. An empty session secret gets a random one,
// so preferences do not survive a restart.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Parser == nil {
		cfg.Parser = parser.New()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(86400 * 30)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	s := &Server{
		cfg:          cfg,
		parser:       cfg.Parser,
		store:        cfg.Store,
		sessionStore: sessionStore,
		notifier:     notifier.New(),
		metrics:      NewMetrics("portion"),
		logger:       cfg.Logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Notifier returns the notifier feeding live update streams.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
		s.metrics.Middleware,
	)

	r.Get("/", s.handleIndex)
	r.Get("/updates", s.handleUpdates)
	r.Post("/ui/parse", s.handleUIParse)
	r.Get("/static/app.js", s.handleAppJS)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/scale", s.handleScale)
		r.Get("/best", s.handleBest)
		r.Get("/convert", s.handleConvert)
		r.Get("/units", s.handleUnits)
		r.Get("/preferences", s.handleGetPreferences)
		r.Put("/preferences", s.handlePutPreferences)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.cfg.Addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.WatchDir != "" {
		w := &watch.Watcher{
			Dir:      s.cfg.WatchDir,
			Logger:   s.logger,
			OnChange: s.Ingest,
		}
		files, err := w.Files()
		if err != nil {
			return fmt.Errorf("failed to list watch directory: %w", err)
		}
		s.Ingest(ctx, files)

		eg.Go(func() error {
			return w.Run(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Ingest scans files, stores them and notifies live pages. Failures are
// logged per batch and never stop the server.
func (s *Server) Ingest(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}
	scanner := &scan.Scanner{
		Parser:      s.parser,
		Loader:      source.NewLoader(),
		Concurrency: s.cfg.Concurrency,
		Logger:      s.logger,
	}
	results, err := scanner.Files(ctx, files)
	if err != nil {
		s.logger.Error("scan failed", "error", err)
		return
	}
	for _, res := range results {
		s.metrics.ObserveDocument("watch", res.Doc)
		ev := notifier.Event{Source: res.Name}
		if s.store != nil {
			rec := state.NewDocument(res.Name, res.Doc, s.cfg.Style)
			if err := s.store.SaveDocument(ctx, rec); err != nil {
				s.logger.Error("failed to save document", "source", res.Name, "error", err)
				continue
			}
			ev.DocumentID = rec.ID
		}
		s.logger.Info("scanned", "source", res.Name, "measurements", len(res.Doc.Tokens))
		s.notifier.Broadcast(ev)
	}
}
