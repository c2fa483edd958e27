// Package server exposes the conversion pipeline over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wudi/ocrconvert/artifact"
	"github.com/wudi/ocrconvert/config"
	"github.com/wudi/ocrconvert/document"
	"github.com/wudi/ocrconvert/observability"
	"github.com/wudi/ocrconvert/render"
)

//go:embed static
var staticFS embed.FS

// Converter runs a document through OCR and renders the result.
type Converter interface {
	Convert(ctx context.Context, doc document.Document, format render.Format) (render.Artifact, error)
	EngineName() string
}

// Server serves the upload page and the upload/download API.
type Server struct {
	cfg    *config.Config
	conv   Converter
	store  *artifact.Store
	logger observability.Logger
	router chi.Router
}

// New builds the router. A nil store gets one sized from cfg.Cache.
func New(cfg *config.Config, conv Converter, store *artifact.Store, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	if store == nil {
		store = artifact.NewStore(
			artifact.WithTTL(cfg.Cache.TTL),
			artifact.WithMaxEntries(cfg.Cache.MaxEntries),
			artifact.WithLogger(logger),
		)
	}
	s := &Server{cfg: cfg, conv: conv, store: store, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Post("/download", s.handleDownload)
	return r
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. The artifact sweeper runs for the lifetime of the call.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.store.Run(sweepCtx, s.cfg.Cache.SweepInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			observability.String("addr", ln.Addr().String()),
			observability.String("ocr_engine", s.conv.EngineName()),
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				observability.String("request_id", middleware.GetReqID(r.Context())),
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("remote_addr", r.RemoteAddr),
				observability.Int("status", ww.Status()),
				observability.Int("bytes", ww.BytesWritten()),
				observability.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
