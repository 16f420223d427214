package server

import (
	"context"
	"direct-messages-api/internal/provider"
	"fmt"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 15 * time.Second
)

// Server defines fields used in HTTP processing
type Server struct {
	logger        *zap.SugaredLogger
	httpServer    *http.Server
	afterShutdown []func()
}

// NewServer returns new Server serving users and messages providers under /api/v1
func NewServer(logger *zap.SugaredLogger, users provider.Users, messages provider.Messages, opts ...Option) (*Server, error) {
	if users == nil || messages == nil {
		return nil, fmt.Errorf("users and messages providers are required")
	}

	cfg := &config{
		httpServer: &http.Server{
			Addr: "0.0.0.0:9000",
		},
		maxBodyBytes: defaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt.apply(cfg)
	}

	h := &handler{
		logger:   logger,
		users:    users,
		messages: messages,
	}

	var root http.Handler = h.routes(cfg.maxBodyBytes)
	if cfg.handlerTimeout > 0 {
		root = timeoutHandler(root, cfg.handlerTimeout)
	}
	cfg.httpServer.Handler = root

	return &Server{
		logger:        logger,
		httpServer:    cfg.httpServer,
		afterShutdown: cfg.afterShutdown,
	}, nil
}

// Start calls ListenAndServe on http.Server instance inside Server struct
// and implements graceful shutdown via goroutine waiting for signals
func (s *Server) Start() error {
	idleConnsClosed := make(chan struct{})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		s.logger.Info("Shutting down HTTP server")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Errorf("srv.Shutdown: %v", err)
		}
		s.logger.Info("HTTP server is stopped")

		close(idleConnsClosed)
	}()

	s.logger.Infof("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("s.httpServer.ListenAndServe: %v", err)
	}

	<-idleConnsClosed

	for _, f := range s.afterShutdown {
		f()
	}

	return nil
}

// timeoutHandler answers requests running longer than d with 503 error envelope
func timeoutHandler(h http.Handler, d time.Duration) http.Handler {
	th := http.TimeoutHandler(h, d, `{"code":503,"message":"Request timed out"}`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		th.ServeHTTP(timeoutWriter{w}, r)
	})
}

// timeoutWriter marks the body http.TimeoutHandler writes on timeout as JSON.
// Headers of completed requests are copied before WriteHeader and stay untouched.
type timeoutWriter struct {
	http.ResponseWriter
}

func (w timeoutWriter) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w timeoutWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
