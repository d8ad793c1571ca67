package storage

import (
	"bytes"
	"context"
	"path"
)

// Archive uploads data under a generated key and returns a signed URL that
// downloads it as filename.
func Archive(ctx context.Context, s Storage, prefix, filename string, data []byte, opts ...Option) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	opts = append([]Option{WithPrefix(prefix), WithFilename(filename)}, opts...)
	info, err := s.Put(ctx, bytes.NewReader(data), int64(len(data)), opts...)
	if err != nil {
		return "", err
	}
	return s.URL(ctx, info.Key, WithDownload(path.Base(filename)))
}
