package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/tela/pkg/errlog"
)

// RequestIDKey is the context key the request ID middleware stores the ID under.
type RequestIDKey struct{}

// RequestID returns the request ID stored on c, or "".
func RequestID(c Context) string {
	v, _ := c.Get(RequestIDKey{}).(string)
	return v
}

// quietStatus reports codes that are part of normal navigation and are
// neither logged nor persisted.
func quietStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// defaultErrorHandler writes the error response: details in debug mode,
// otherwise the error page. 401 and 403 pages render without the layout.
func (a *App) defaultErrorHandler(c Context, err error) error {
	code := StatusCode(err)
	if !quietStatus(code) {
		a.recordError(c, code, err)
	}

	if a.debug {
		return c.String(code, debugDetails(code, err))
	}

	if c.IsAjax() {
		msg := http.StatusText(code)
		if httpErr := AsHTTPError(err); httpErr != nil && httpErr.Message != "" {
			msg = httpErr.Message
		}
		return c.JSON(code, map[string]string{"error": msg})
	}

	if a.renderer == nil {
		return c.String(code, http.StatusText(code))
	}
	withLayout := code != http.StatusUnauthorized && code != http.StatusForbidden
	page, rerr := a.renderer.Error(code, withLayout)
	if rerr != nil {
		return rerr
	}
	if rc, ok := c.(*requestContext); ok {
		// Alerts stay queued for the next regular page.
		return rc.render(code, page, false)
	}
	return c.Render(code, page)
}

// recordError logs err and persists it to the error log when configured.
func (a *App) recordError(c Context, code int, err error) {
	path := c.Request().URL.Path
	c.LogError("request failed",
		slog.Int("status", code),
		slog.String("path", path),
		slog.Any("error", err),
	)
	if a.errorLog == nil {
		return
	}

	entry := errlog.Entry{
		Date:      time.Now(),
		Code:      code,
		Message:   err.Error(),
		Path:      path,
		RequestID: RequestID(c),
	}
	if u := c.User(); u != nil {
		entry.User = u.Matricule
	}
	if rerr := a.errorLog.Record(c, entry); rerr != nil {
		c.LogWarn("failed to record error", slog.Any("error", rerr))
	}
}

func debugDetails(code int, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s\n\n", code, http.StatusText(code))
	if httpErr := AsHTTPError(err); httpErr != nil {
		if httpErr.Detail != "" {
			fmt.Fprintf(&b, "%s\n\n", httpErr.Detail)
		}
		if httpErr.Err != nil {
			fmt.Fprintf(&b, "%s: %v\n", httpErr.Message, httpErr.Err)
			return b.String()
		}
	}
	b.WriteString(err.Error())
	var st interface{ StackTrace() []byte }
	if errors.As(err, &st) && len(st.StackTrace()) > 0 {
		b.WriteString("\n\n")
		b.Write(st.StackTrace())
	}
	return b.String()
}
