// Package server exposes the upload and dataset endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/csvlens/internal/analysis"
	"github.com/KaramelBytes/csvlens/internal/ingest"
	"github.com/KaramelBytes/csvlens/internal/store"
)

// Server is the HTTP API.
type Server struct {
	logger      *zap.Logger
	addr        string
	store       store.Store
	maxUpload   int64
	ingestOpts  ingest.Options
	analyzeOpts analysis.Options
	server      *http.Server
}

// Option configures the server.
type Option func(*Server)

// WithStore persists every upload. Without a store uploads are analyzed and
// returned with an empty dataset_id.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithMaxUploadBytes caps the request body size.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxUpload = n
	}
}

// WithIngestOptions sets the parsing options used for uploads.
func WithIngestOptions(opt ingest.Options) Option {
	return func(s *Server) {
		s.ingestOpts = opt
	}
}

// WithAnalysisOptions sets the engine options used for uploads.
func WithAnalysisOptions(opt analysis.Options) Option {
	return func(s *Server) {
		s.analyzeOpts = opt
	}
}

// New creates a server listening on addr once started.
func New(logger *zap.Logger, addr string, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:      logger,
		addr:        addr,
		maxUpload:   50 << 20,
		ingestOpts:  ingest.DefaultOptions(),
		analyzeOpts: analysis.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler, wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return requestLogger(s.logger)(mux)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /csv/upload", s.handleUpload)
	mux.HandleFunc("GET /datasets", s.handleListDatasets)
	mux.HandleFunc("GET /datasets/{id}", s.handleGetDataset)
	mux.HandleFunc("DELETE /datasets/{id}", s.handleDeleteDataset)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
