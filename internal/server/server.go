// Package server exposes content snapshots and history of a content
// repository over a read-only HTTP interface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/masmgr/content-gateway/config"
	"github.com/masmgr/content-gateway/internal/git"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 5 * time.Second

// Server is the content gateway. It holds no repository state between
// requests.
type Server struct {
	cfg      config.Config
	source   git.RepositorySource
	resolver *git.Resolver
	logger   *zap.Logger
	metrics  *metrics
	routes   []route

	doc     *openapi3.T
	docJSON []byte
	handler http.Handler
}

// New builds a gateway serving the repository source opens. cfg is copied;
// later changes to the caller's value do not affect the server.
func New(cfg config.Config, source git.RepositorySource, logger *zap.Logger) (*Server, error) {
	cfg.Content.Branches = slices.Clone(cfg.Content.Branches)
	cfg.ApplyDeployment()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if source == nil {
		return nil, errors.New("no repository source")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		source:   source,
		resolver: git.NewResolver(cfg.Content.DefaultBranch, cfg.Content.Branches),
		logger:   logger,
		routes:   routeTable(),
	}
	if cfg.Server.Metrics {
		s.metrics = newMetrics()
	}

	s.doc = s.buildDocument()
	docJSON, err := s.doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("render api document: %w", err)
	}
	s.docJSON = docJSON
	s.handler = s.router()

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Document returns the API description served at /doc.
func (s *Server) Document() *openapi3.T {
	return s.doc
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.instrument)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.GetHead)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	r.Get(docPath, s.serveDocument)
	r.Get(uiPath, s.serveUI)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.handler())
	}

	for _, rt := range s.routes {
		r.Get(rt.pattern, s.serveRoute(rt))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusNotFound, ErrorBody{Error: ErrorDetail{Code: CodeNotFound, Message: "no such route"}})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, HEAD")
		s.writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: ErrorDetail{
			Code:    CodeMethodNotAllowed,
			Message: "method " + r.Method + " not allowed; the gateway is read-only",
		}})
	})

	return r
}

// ListenAndServe binds the configured address and serves until ctx is
// cancelled. A taken address yields *PortInUseError; binding is never
// retried.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return &PortInUseError{Addr: addr, Err: err}
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("content gateway listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("deployment", string(s.cfg.Server.Deployment)),
		zap.String("default_branch", s.resolver.Default()),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("content gateway stopped")
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}

func (s *Server) serveDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(s.docJSON)
}
