// Package storage archives generated files in S3-compatible object storage
// and hands out pre-signed download links.
//
// It is used by the user export: the CSV is uploaded under a dated key and
// the browser is redirected to a short-lived signed URL.
//
//	store, err := storage.New(cfg)
//	if err != nil {
//		return err
//	}
//
//	link, err := storage.Archive(ctx, store, "exports", "utilisateurs.csv", data,
//		storage.WithContentType("text/csv; charset=utf-8"),
//	)
//
// Storage is optional; check Config.Enabled before calling New.
package storage
