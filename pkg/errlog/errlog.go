// Package errlog persists application errors to the t_log table.
//
// Entries are written directly through a Store, or enqueued on a job
// manager and written by PersistTask. PurgeTask removes entries older
// than the retention period on a cron schedule.
package errlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/query"
)

const (
	table = "t_log"

	// maxMessageLen bounds log_message; longer messages are cut on a rune boundary.
	maxMessageLen = 2000
)

// Entry is one row of t_log.
type Entry struct {
	Date      time.Time `json:"date"`
	User      string    `json:"user,omitempty"`
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	RequestID string    `json:"request_id,omitempty"`
}

// Recorder stores error entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store reads and writes t_log through the query builder.
type Store struct {
	dao    *db.DAO
	logger *slog.Logger
}

// NewStore creates a Store over dao.
func NewStore(dao *db.DAO, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{dao: dao, logger: logger}
}

func (s *Store) builder() *query.Builder {
	return query.New(s.dao,
		query.WithTable(table),
		query.WithPrimaryKey("log_id"),
		query.WithLogger(s.logger),
	)
}

// Record inserts e. A zero Date is replaced by the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if _, err := s.builder().Insert(ctx, toRow(e)); err != nil {
		return errors.Join(ErrPersistFailed, err)
	}
	return nil
}

// Purge deletes the entries logged before t and returns how many were removed.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.builder().Where("log_date < ?", before.UTC()).Delete(ctx)
	if err != nil {
		return 0, errors.Join(ErrPurgeFailed, err)
	}
	return n, nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.builder().
		Fields("log_date", "log_user", "log_code", "log_message", "log_path", "log_request_id").
		Order("log_date DESC").
		Limit(limit).
		Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("errlog: list entries: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, fromRow(row))
	}
	return entries, nil
}

func toRow(e Entry) db.Row {
	row := db.Row{
		"log_date":    e.Date.UTC(),
		"log_code":    e.Code,
		"log_message": truncate(e.Message, maxMessageLen),
		"log_path":    e.Path,
	}
	row["log_user"] = nullable(e.User)
	row["log_request_id"] = nullable(e.RequestID)
	return row
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromRow(row db.Row) Entry {
	var e Entry
	switch v := row["log_date"].(type) {
	case time.Time:
		e.Date = v
	case string:
		e.Date, _ = time.Parse(time.DateTime, v)
	case []byte:
		e.Date, _ = time.Parse(time.DateTime, string(v))
	}
	e.User = asString(row["log_user"])
	e.Message = asString(row["log_message"])
	e.Path = asString(row["log_path"])
	e.RequestID = asString(row["log_request_id"])
	switch v := row["log_code"].(type) {
	case int64:
		e.Code = int(v)
	case int:
		e.Code = v
	case int32:
		e.Code = int(v)
	}
	return e
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
