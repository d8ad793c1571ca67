package sanitizer

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/tela/pkg/strutil"
)

// FilterFunc transforms a value. arg is nil when the attribute is `true`.
type FilterFunc func(value any, arg any) (any, error)

var filters = map[string]FilterFunc{
	"capitalize":  capitalize,
	"digit":       digit,
	"escape":      escape,
	"format_date": formatDate,
	"lowercase":   lowercase,
	"rich_text":   richText,
	"strip_tags":  stripTags,
	"trim":        trim,
	"uppercase":   uppercase,
}

// IsFilter reports whether name is a known filter attribute.
func IsFilter(name string) bool {
	_, ok := filters[name]
	return ok
}

func capitalize(v any, _ any) (any, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return v, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:], nil
}

var nonDigit = regexp.MustCompile(`[^0-9.\-]`)

func digit(v any, _ any) (any, error) {
	if v == nil {
		return "", nil
	}
	s := toString(v)
	s = strings.NewReplacer(",", ".", " ", "", "+", "").Replace(s)
	return nonDigit.ReplaceAllString(s, ""), nil
}

func escape(v any, _ any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	return StripHTML(s), nil
}

func formatDate(v any, arg any) (any, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return v, nil
	}
	layouts, ok := arg.([]any)
	if !ok || len(layouts) < 2 {
		return nil, ErrFormatDateArgs
	}
	from := strings.TrimSpace(toString(layouts[0]))
	to := strings.TrimSpace(toString(layouts[1]))
	return strutil.ConvertDate(s, from, to)
}

func lowercase(v any, _ any) (any, error) {
	if s, ok := v.(string); ok {
		return cases.Lower(language.Und).String(s), nil
	}
	return v, nil
}

func uppercase(v any, _ any) (any, error) {
	if s, ok := v.(string); ok {
		return cases.Upper(language.Und).String(s), nil
	}
	return v, nil
}

func richText(v any, _ any) (any, error) {
	if s, ok := v.(string); ok {
		return SanitizeHTML(s), nil
	}
	return v, nil
}

func stripTags(v any, _ any) (any, error) {
	if s, ok := v.(string); ok {
		return html.UnescapeString(StripHTML(s)), nil
	}
	return v, nil
}

const defaultTrimSet = " \t\n\r\x00\x0B"

func trim(v any, arg any) (any, error) {
	chars := defaultTrimSet
	if arg != nil {
		s, ok := arg.(string)
		if !ok {
			return nil, errors.Join(ErrFilterArg, fmt.Errorf("trim expects a string, got %T", arg))
		}
		chars = s
	}
	switch x := v.(type) {
	case string:
		return strings.Trim(x, chars), nil
	case int, int64, float64:
		return strings.Trim(toString(x), chars), nil
	}
	return v, nil
}

func toString(v any) string {
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
		return ""
	}
	return fmt.Sprint(v)
}
