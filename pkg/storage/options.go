package storage

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultURLExpiry is the lifetime of signed links.
const DefaultURLExpiry = 15 * time.Minute

// Option configures Put.
type Option func(*putOptions)

type putOptions struct {
	key         string
	prefix      string
	filename    string
	contentType string
}

// WithKey stores the file under key instead of a generated one.
func WithKey(key string) Option {
	return func(o *putOptions) { o.key = key }
}

// WithPrefix sets the leading path of a generated key.
func WithPrefix(prefix string) Option {
	return func(o *putOptions) { o.prefix = prefix }
}

// WithFilename sets the readable tail of a generated key.
func WithFilename(name string) Option {
	return func(o *putOptions) { o.filename = name }
}

func WithContentType(ct string) Option {
	return func(o *putOptions) {
		if ct != "" {
			o.contentType = ct
		}
	}
}

// URLOption configures URL.
type URLOption func(*urlOptions)

type urlOptions struct {
	downloadName string
	expiry       time.Duration
	public       bool
}

func WithExpiry(d time.Duration) URLOption {
	return func(o *urlOptions) {
		if d > 0 {
			o.expiry = d
		}
	}
}

// WithDownload makes browsers save the file as filename.
func WithDownload(filename string) URLOption {
	return func(o *urlOptions) { o.downloadName = filename }
}

// WithPublic returns the unsigned URL, for buckets served publicly.
func WithPublic() URLOption {
	return func(o *urlOptions) { o.public = true }
}

// BuildKey returns "{prefix}/{yyyy}/{mm}/{dd}/{uuid}-{filename}", with
// sanitized segments and empty ones skipped.
func BuildKey(prefix, filename string, now time.Time) string {
	var parts []string
	for _, seg := range strings.Split(prefix, "/") {
		if s := sanitizePathSegment(seg); s != "" {
			parts = append(parts, s)
		}
	}
	name := uuid.NewString()
	if f := sanitizePathSegment(path.Base(filename)); f != "" && f != "." {
		name += "-" + f
	}
	parts = append(parts, now.UTC().Format("2006/01/02"), name)
	return strings.Join(parts, "/")
}
