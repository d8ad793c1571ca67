// Package sanitizer cleans submitted values before they reach the model.
//
// Filters are declared as property attributes and run in attribute order;
// the value is then cast to the property type. The package also exposes
// bluemonday based HTML helpers.
package sanitizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/dmitrymomot/tela/pkg/attribute"
)

// Sanitizer applies the filters of a definition to submitted data.
type Sanitizer struct {
	def    *attribute.Definition
	strict bool
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithStrict drops keys that have neither a definition nor extra attributes.
func WithStrict() Option {
	return func(s *Sanitizer) { s.strict = true }
}

// New creates a sanitizer for def. A nil definition is treated as empty.
func New(def *attribute.Definition, opts ...Option) *Sanitizer {
	if def == nil {
		def = attribute.NewDefinition("", nil)
	}
	s := &Sanitizer{def: def}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize returns a sanitized copy of data. extra attributes are merged
// over the definition of the matching property for this call only.
func (s *Sanitizer) Sanitize(data map[string]any, extra map[string]attribute.Attributes) (map[string]any, error) {
	out := maps.Clone(data)
	if out == nil {
		out = map[string]any{}
	}
	for name, value := range data {
		attrs, defined := s.def.Property(name)
		more := extra[name]
		if !defined && len(more) == 0 {
			if s.strict {
				delete(out, name)
			}
			continue
		}
		if len(more) > 0 {
			attrs = attrs.Merge(more)
		}
		v, err := SanitizeValue(value, attrs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// SanitizeValue runs the filters of attrs over value, then casts the
// result to the `type` attribute. A `false` attribute disables its filter.
func SanitizeValue(value any, attrs attribute.Attributes) (any, error) {
	for _, at := range attrs {
		fn, ok := filters[at.Name]
		if !ok || at.Value == false {
			continue
		}
		var arg any
		if at.Value != true {
			arg = at.Value
		}
		var err error
		if value, err = fn(value, arg); err != nil {
			return nil, err
		}
	}
	return Cast(value, attrs.Type())
}

// Cast converts value to the named property type.
func Cast(value any, typ string) (any, error) {
	switch typ {
	case "int", "integer":
		return toInt(value), nil
	case "real", "float", "double":
		return toFloat(value), nil
	case "string", "char", "varchar", "date":
		return toString(value), nil
	case "bool", "boolean":
		if s, ok := value.(string); ok {
			return s == "true" || s == "1" || s == "on", nil
		}
		return attribute.Truthy(value), nil
	case "object":
		return decodeJSON[map[string]any](value)
	case "array":
		return decodeJSON[[]any](value)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

// decodeJSON converts a JSON string, or any value JSON can round-trip,
// to T. Nil and blank strings yield nil.
func decodeJSON[T any](value any) (any, error) {
	var data []byte
	switch x := value.(type) {
	case nil:
		return nil, nil
	case T:
		return x, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		data = []byte(x)
	case []byte:
		if len(bytes.TrimSpace(x)) == 0 {
			return nil, nil
		}
		data = x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, errors.Join(ErrInvalidJSON, err)
		}
		data = b
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Join(ErrInvalidJSON, err)
	}
	return out, nil
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return 0
}
