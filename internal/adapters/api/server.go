// Package api exposes an analysis session over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"go.uber.org/zap"
)

// Server serves the scan API
type Server struct {
	session  *core.AnalysisSession
	logger   *zap.Logger
	cfg      config.APIConfig
	router   chi.Router
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new API server
func NewServer(session *core.AnalysisSession, logger *zap.Logger, cfg config.APIConfig) *Server {
	s := &Server{
		session: session,
		logger:  logger,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/", s.handleStatus)
	s.router.Post("/predict", s.handlePredict)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/scans", s.handleSubmit)
		r.Get("/session", s.handleSession)
		r.Delete("/session/current", s.handleClearCurrent)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
		r.Get("/stats", s.handleStats)
	})
}

// ServeHTTP lets the server be mounted or tested directly
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts listening for API requests
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("API server starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Process analyzes content through the session
func (s *Server) Process(ctx context.Context, content string, kind core.ContentKind) (*core.ClassificationRecord, error) {
	return s.session.Analyze(ctx, content, kind)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
