// Package server - HTTP surface of a running pipeline: the MJPEG feeds, the
// overlay snapshot, the live parameter endpoints, profiler statistics and a
// health check.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-silhouette/params"
	"github.com/nvr-ai/go-silhouette/profiler"
	"github.com/nvr-ai/go-silhouette/stream"
)

// DefaultAddr is the listen address used when Options.Addr is empty.
const DefaultAddr = ":5000"

// shutdownTimeout bounds the graceful shutdown after the context ends.
const shutdownTimeout = 5 * time.Second

// Options wires the server to the rest of the process. Nil hubs disable the
// matching feed and a nil Store disables the parameter endpoints.
type Options struct {
	Addr     string
	Overlay  *stream.Hub
	Raw      *stream.Hub
	Store    *params.Store
	Profiler *profiler.RuntimeProfiler
	Logger   *zap.SugaredLogger
}

// Server serves the HTTP routes.
type Server struct {
	opts   Options
	router *chi.Mux
	logger *zap.SugaredLogger
}

// New builds the router.
//
// @example
//
//	srv := server.New(server.Options{Overlay: hub, Store: store, Logger: logger})
//	err := srv.ListenAndServe(ctx)
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{opts: opts, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Overlay != nil {
		r.Method(http.MethodGet, "/video_feed", stream.MJPEGHandler(opts.Overlay, logger))
		r.Get("/snapshot", s.getSnapshot)
	}
	if opts.Raw != nil {
		r.Method(http.MethodGet, "/video_feed/raw", stream.MJPEGHandler(opts.Raw, logger))
	}
	if opts.Store != nil {
		r.Route("/params", func(r chi.Router) {
			r.Get("/", s.getParams)
			r.Put("/", s.putParams)
			r.Post("/reset", s.resetParams)
			r.Get("/specs", s.getSpecs)
		})
	}
	r.Get("/stats", s.getStats)

	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx ends, then shuts down gracefully. Open
// streams are closed by the shutdown, not waited for.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Streams never finish on their own; cut them.
		_ = srv.Close()
	}
	s.logger.Infow("http server stopped")
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
