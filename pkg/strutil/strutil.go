// Package strutil holds naming and formatting helpers shared by the router,
// the model layer and the views.
package strutil

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidDate is returned when a value does not match the source layout.
var ErrInvalidDate = errors.New("strutil: invalid date")

// Camel converts kebab, snake or spaced words to camelCase ("mon-action" -> "monAction").
func Camel(s string) string {
	if s == "" {
		return ""
	}
	return inflect.CamelizeDownFirst(s)
}

// Pascal converts words to PascalCase ("utilisateur" -> "Utilisateur").
func Pascal(s string) string {
	if s == "" {
		return ""
	}
	return inflect.Camelize(s)
}

// Kebab converts words to kebab-case ("monAction" -> "mon-action").
func Kebab(s string) string {
	return inflect.Dasherize(s)
}

// Snake converts words to snake_case ("MonAction" -> "mon_action").
func Snake(s string) string {
	return inflect.Underscore(s)
}

// ConvertDate reformats a date string from one Go layout to another.
// An empty value stays empty.
func ConvertDate(value, from, to string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	t, err := time.Parse(from, value)
	if err != nil {
		return "", errors.Join(ErrInvalidDate, err)
	}
	return t.Format(to), nil
}

// ReduceSpaces collapses runs of spaces into one.
func ReduceSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

// CleanSearchString normalizes user search input: trimmed, single-spaced,
// lower-cased and HTML-escaped.
func CleanSearchString(s string) string {
	s = ReduceSpaces(strings.TrimSpace(s))
	return html.EscapeString(cases.Lower(language.Und).String(s))
}
