package middlewares

import (
	"log/slog"
	"runtime"

	"github.com/dmitrymomot/tela/internal"
)

const defaultStackSize = 4 << 10

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	stackSize int
}

// WithStackSize caps the captured stack trace. Zero disables the capture.
func WithStackSize(n int) RecoverOption {
	return func(c *recoverConfig) { c.stackSize = max(n, 0) }
}

// Recover converts a panic in the next handlers into a *PanicError, so the
// error handler answers 500 and the failure reaches the error log.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := recoverConfig{stackSize: defaultStackSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				pe := &PanicError{Value: r}
				attrs := []any{slog.Any("panic", r), slog.String("path", c.Request().URL.Path)}
				if cfg.stackSize > 0 {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
					attrs = append(attrs, slog.String("stack", string(pe.Stack)))
				}
				c.LogError("panic recovered", attrs...)
				err = pe
			}()
			return next(c)
		}
	}
}
