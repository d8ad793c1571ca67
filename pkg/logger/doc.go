// Package logger builds the application's slog logger.
//
// Records are written as JSON (or text) to stdout and, when a Sentry DSN is
// configured, fanned out to Sentry: errors create issues, warnings are kept
// as logs. Context extractors add request-scoped attributes to every record:
//
//	log := logger.New(cfg,
//		logger.FromContext(requestIDKey{}, "request_id"),
//	)
//	log.InfoContext(ctx, "user saved", slog.Int64("id", id))
package logger
