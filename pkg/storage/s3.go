package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage keeps files in one bucket of an S3-compatible service.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    *string
	cfg       Config
	now       func() time.Time
}

// New validates cfg and builds the S3 client. Nothing is sent until the
// first call.
func New(cfg Config) (*S3Storage, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.PathStyle,
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    aws.String(cfg.Bucket),
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

func (s *S3Storage) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error) {
	if size <= 0 {
		return nil, ErrEmptyFile
	}
	o := putOptions{contentType: DefaultContentType}
	for _, opt := range opts {
		opt(&o)
	}
	if o.key == "" {
		o.key = BuildKey(o.prefix, o.filename, s.now())
	}

	// The SDK signs the payload and needs to rewind it on retries.
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(io.LimitReader(r, size))
		if err != nil {
			return nil, fmt.Errorf("storage: read input: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        s.bucket,
		Key:           aws.String(o.key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(o.contentType),
	}); err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}
	return &FileInfo{Key: o.key, Size: size, ContentType: o.contentType}, nil
}

func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: s.bucket, Key: aws.String(key)})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: s.bucket, Key: aws.String(key)}); err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// URL returns a pre-signed GET link, or the unsigned one with WithPublic.
func (s *S3Storage) URL(ctx context.Context, key string, opts ...URLOption) (string, error) {
	o := urlOptions{expiry: DefaultURLExpiry}
	for _, opt := range opts {
		opt(&o)
	}
	if o.public {
		return s.publicURL(key), nil
	}

	in := &s3.GetObjectInput{Bucket: s.bucket, Key: aws.String(key)}
	if o.downloadName != "" {
		in.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", o.downloadName))
	}
	req, err := s.presigner.PresignGetObject(ctx, in, s3.WithPresignExpires(o.expiry))
	if err != nil {
		return "", wrapS3Error(err, ErrPresignFailed)
	}
	return req.URL, nil
}

// Healthcheck is a readiness check on the bucket.
func (s *S3Storage) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: s.bucket}); err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, wrapS3Error(err, ErrAccessDenied))
		}
		return nil
	}
}

func (s *S3Storage) publicURL(key string) string {
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key
	case s.cfg.Endpoint == "":
		return "https://" + s.cfg.Bucket + ".s3." + s.cfg.Region + ".amazonaws.com/" + key
	case s.cfg.PathStyle:
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	default:
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + key
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizePathSegment makes one key segment safe: no traversal, no
// separators, ASCII only.
func sanitizePathSegment(seg string) string {
	seg = strings.Trim(seg, " /\\")
	seg = strings.ReplaceAll(seg, "..", "")
	return url.PathEscape(unsafeKeyChars.ReplaceAllString(seg, "_"))
}

var _ Storage = (*S3Storage)(nil)
