package storage

import (
	"context"
	"io"
)

// Storage defines the interface for file storage operations.
type Storage interface {
	// Put uploads size bytes from r. The key comes from WithKey, or is
	// generated from WithPrefix and WithFilename.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error)

	// Get retrieves a file. The caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file.
	Delete(ctx context.Context, key string) error

	// URL returns a signed URL, or the public one with WithPublic.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Bucket    string `env:"STORAGE_BUCKET"`
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`

	// Endpoint is set for MinIO and other S3-compatible services.
	Endpoint  string `env:"STORAGE_ENDPOINT"`
	PublicURL string `env:"STORAGE_PUBLIC_URL"`
	PathStyle bool   `env:"STORAGE_PATH_STYLE" envDefault:"false"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// FileInfo describes a stored file.
type FileInfo struct {
	Key         string
	ContentType string
	Size        int64
}

const (
	DefaultRegion      = "us-east-1"
	DefaultContentType = "application/octet-stream"
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
