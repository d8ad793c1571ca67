package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/tela/internal"
)

const (
	// DefaultCSRFField is the form field rendered by the csrfField view helper.
	DefaultCSRFField = "CSRFToken"
	// DefaultCSRFHeader carries the token on ajax requests.
	DefaultCSRFHeader = "X-CSRF-Token"
)

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	Extractor   internal.Extractor // Token sources, tried in order
	ExemptPaths []string           // Path prefixes that skip the check
}

// CSRFOption configures CSRFConfig.
type CSRFOption func(*CSRFConfig)

// WithCSRFSources replaces the token sources.
func WithCSRFSources(sources ...internal.ExtractorSource) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.Extractor = internal.NewExtractor(sources...)
	}
}

// WithCSRFExemptPaths skips the check for requests under the given path prefixes.
func WithCSRFExemptPaths(prefixes ...string) CSRFOption {
	return func(cfg *CSRFConfig) {
		cfg.ExemptPaths = append(cfg.ExemptPaths, prefixes...)
	}
}

// CSRF returns middleware that validates the session CSRF token on unsafe
// methods. Tokens are single use: every check consumes the stored token, and
// the next rendered page carries a fresh one. In debug mode the check passes.
func CSRF(opts ...CSRFOption) internal.Middleware {
	cfg := &CSRFConfig{
		Extractor: internal.NewExtractor(
			internal.FromForm(DefaultCSRFField),
			internal.FromHeader(DefaultCSRFHeader),
		),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if isSafeMethod(c.Request().Method) || exempt(cfg.ExemptPaths, c.Request().URL.Path) {
				return next(c)
			}

			token, _ := cfg.Extractor.Extract(c)
			if !c.CheckCSRF(token) {
				c.LogWarn("csrf check failed", "path", c.Request().URL.Path)
				return internal.ErrForbidden("The form has expired, please try again",
					internal.WithError(ErrCSRFMismatch))
			}
			return next(c)
		}
	}
}

func isSafeMethod(method string) bool {
	return slices.Contains([]string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace}, method)
}

func exempt(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
