// Package export writes tabular data in formats spreadsheet tools open directly.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

const bom = "\xEF\xBB\xBF"

// DefaultDelimiter matches the list separator of European spreadsheet locales.
const DefaultDelimiter = ';'

type csvConfig struct {
	delimiter   rune
	forceString bool
}

// CSVOption configures CSV output.
type CSVOption func(*csvConfig)

// WithDelimiter sets the field separator.
func WithDelimiter(r rune) CSVOption {
	return func(c *csvConfig) { c.delimiter = r }
}

// WithRawValues writes values as-is instead of ="value" formulas.
func WithRawValues() CSVOption {
	return func(c *csvConfig) { c.forceString = false }
}

// CSV writes a header line of columns followed by one line per row, after a
// UTF-8 byte order mark. Values are written as ="value" so spreadsheets keep
// them as text (leading zeros, long numbers, dates).
func CSV(w io.Writer, columns []string, rows []map[string]any, opts ...CSVOption) error {
	if len(columns) == 0 {
		return ErrNoColumns
	}
	if len(rows) == 0 {
		return ErrNoRows
	}

	cfg := csvConfig{delimiter: DefaultDelimiter, forceString: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = cfg.delimiter
	if err := cw.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			v := format(row[col])
			if cfg.forceString {
				v = `="` + v + `"`
			}
			record[i] = v
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVBytes is CSV into a byte slice.
func CSVBytes(columns []string, rows []map[string]any, opts ...CSVOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := CSV(&buf, columns, rows, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(time.DateTime)
	}
	return fmt.Sprint(v)
}
