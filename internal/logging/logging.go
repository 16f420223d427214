// Package logging builds zap loggers and carries per-request ids through contexts
// so that storage level logs can be matched to the HTTP request that caused them.
package logging

import (
	"context"
	"go.uber.org/zap"
)

type key string

const requestIDKey key = "request_id"

// Config defines fields used for logger construction, parsed from environment variables
type Config struct {
	Production bool `env:"LOG_PRODUCTION" envDefault:"false"`
}

// New returns zap production logger if cfg says so, development one otherwise
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// WithRequestID returns a copy of ctx carrying request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts request id set by WithRequestID
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// FromContext returns logger annotated with request id of ctx, if any
func FromContext(ctx context.Context, logger *zap.SugaredLogger) *zap.SugaredLogger {
	if id, ok := RequestID(ctx); ok {
		return logger.With("request_id", id)
	}
	return logger
}
