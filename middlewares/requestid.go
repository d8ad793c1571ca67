package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tela/internal"
	"github.com/dmitrymomot/tela/pkg/logger"
)

const maxRequestIDLength = 128

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	headers  []string
	generate func() string
}

// WithRequestIDHeaders sets the incoming headers checked in order. The
// first one also carries the ID back in the response.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(c *requestIDConfig) {
		if len(headers) > 0 {
			c.headers = headers
		}
	}
}

// WithRequestIDGenerator replaces uuid.NewString.
func WithRequestIDGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if fn != nil {
			c.generate = fn
		}
	}
}

// RequestID tags each request with an ID, reusing a well-formed upstream
// one. The ID is readable with tela.RequestID and echoed in the response.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := requestIDConfig{
		headers:  []string{"X-Request-ID", "X-Correlation-ID"},
		generate: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := ""
			for _, h := range cfg.headers {
				if v := c.Header(h); validRequestID(v) {
					id = v
					break
				}
			}
			if id == "" {
				id = cfg.generate()
			}
			c.Set(internal.RequestIDKey{}, id)
			c.SetHeader(cfg.headers[0], id)
			return next(c)
		}
	}
}

// validRequestID accepts printable ASCII only, so upstream IDs cannot
// inject log lines or headers.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestIDExtractor adds "request_id" to log records emitted with a
// request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, _ := ctx.Value(internal.RequestIDKey{}).(string)
		if id == "" {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}
