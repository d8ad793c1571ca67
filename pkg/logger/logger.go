package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config holds logger configuration.
type Config struct {
	Level  string       `env:"LOG_LEVEL" envDefault:"info"`
	Format string       `env:"LOG_FORMAT" envDefault:"json"` // json or text
	Sentry SentryConfig `envPrefix:"SENTRY_"`
	Output io.Writer
}

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"production"`
	// Warn also stores warnings in Sentry; errors always create issues.
	Warn bool `env:"WARN" envDefault:"true"`
}

// New creates a logger from cfg. Records go to stdout and, when a DSN is
// set, to Sentry. Extractors apply to both destinations.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			EnableLogs:  true,
		}); err != nil {
			slog.New(handler).Error("failed to initialize sentry", slog.String("error", err.Error()))
		} else {
			logLevel := []slog.Level{slog.LevelError}
			if cfg.Sentry.Warn {
				logLevel = []slog.Level{slog.LevelWarn, slog.LevelError}
			}
			sentryHandler := sentryslog.Option{
				EventLevel: []slog.Level{slog.LevelError},
				LogLevel:   logLevel,
			}.NewSentryHandler(context.Background())
			handler = fanout{handler, sentryHandler}
		}
	}

	return slog.New(Decorate(handler, extractors...))
}

// Flush waits for buffered Sentry events, up to timeout.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// NewNope creates a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
