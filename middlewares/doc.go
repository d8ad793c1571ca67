// Package middlewares provides middleware for Tela applications.
//
// Every middleware wraps controller dispatch and runs in the order given to
// tela.WithMiddleware:
//
//	app := tela.New(
//	    tela.WithLogger(logger.New(cfg.Log, middlewares.RequestIDExtractor())),
//	    tela.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	        middlewares.Metrics(middlewares.WithMetricsRegistry(reg)),
//	        middlewares.CSRF(),
//	    ),
//	    tela.WithMount("/metrics", middlewares.MetricsHandler(reg)),
//	)
//
// # Request ID
//
// RequestID assigns an ID to each request. It reuses an incoming
// X-Request-ID (or X-Correlation-ID) header, otherwise generates a UUID.
// RequestIDExtractor adds it to every log record, and the error log stores
// it next to the failure.
//
// # Recover
//
// Recover turns panics into *PanicError values. The error handler answers
// them with a 500 page.
//
// # Metrics
//
// Metrics counts requests and observes latency per route pattern, so the
// label set stays bounded whatever URLs clients send.
//
// # CSRF
//
// CSRF checks the session token on POST, PUT, PATCH and DELETE. The token is
// read from the "CSRFToken" form field (rendered by the csrfField view
// helper) or the X-CSRF-Token header. Tokens are single use. In debug mode
// the check always passes.
package middlewares
