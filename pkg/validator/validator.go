// Package validator checks values against rules.
//
// Two styles are supported. Rule functions (RequiredString, MinLenString...)
// combined with Apply suit hand-written forms. Validator checks a whole
// record against the attributes of a property definition, including
// uniqueness through a UniqueChecker.
package validator

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/tela/pkg/attribute"
)

// UniqueChecker reports whether another row already holds value for the
// property. id is nil for a new row, a scalar for a simple primary key, or
// a map of key columns for a composite one.
type UniqueChecker interface {
	ValueExists(ctx context.Context, property string, value any, id any) (bool, error)
}

// Validator checks records against a definition.
type Validator struct {
	def    *attribute.Definition
	unique UniqueChecker
}

// Option configures a Validator.
type Option func(*Validator)

// WithUniqueChecker enables the `unique` attribute.
func WithUniqueChecker(u UniqueChecker) Option {
	return func(v *Validator) { v.unique = u }
}

// New creates a validator for def.
func New(def *attribute.Definition, opts ...Option) *Validator {
	if def == nil {
		def = attribute.NewDefinition("", nil)
	}
	v := &Validator{def: def}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks data and returns the failed rules per property.
// Boolean properties missing from data are set to false in place.
// A nil data is validated as an empty record.
// The error is reserved for invalid definitions and lookup failures.
func (v *Validator) Validate(ctx context.Context, data map[string]any, id any) (PropertyErrors, error) {
	if data == nil {
		data = map[string]any{}
	}
	errs := PropertyErrors{}
	var uniques []string

	for _, name := range v.def.Names() {
		value, present := data[name]
		if !present {
			continue
		}
		attrs, _ := v.def.Property(name)
		rules, err := CheckValue(value, attrs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, r := range rules {
			errs.add(name, v.def.Alias(name), value, r)
		}
		if attrs.Has("unique") {
			uniques = append(uniques, name)
		}
	}

	for _, name := range v.def.Filter(attribute.Match(map[string]any{"type": "boolean"})) {
		if _, ok := data[name]; !ok {
			data[name] = false
		}
	}

	for _, name := range v.def.Filter(attribute.Has("required")) {
		if _, ok := data[name]; !ok {
			errs.add(name, v.def.Alias(name), nil, RuleError{Rule: "required", RuleValue: true, Message: "is required"})
		}
	}

	if v.unique != nil {
		for _, name := range uniques {
			exists, err := v.unique.ValueExists(ctx, name, data[name], id)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if exists {
				errs.add(name, v.def.Alias(name), data[name], RuleError{Rule: "unique", RuleValue: true, Message: "already exists and must be unique"})
			}
		}
	}

	return errs, nil
}

// CheckValue runs the rules of attrs against a single value. A nil value
// passes unless required; a required value that is empty reports only
// the `required` rule.
func CheckValue(value any, attrs attribute.Attributes) ([]RuleError, error) {
	isRequired := attrs.Has("required")
	if value == nil && !isRequired {
		return nil, nil
	}
	if isRequired && !required(value) {
		return []RuleError{{Rule: "required", RuleValue: true, Message: "is required"}}, nil
	}

	var out []RuleError
	for _, at := range attrs {
		rule, ok := attrRules[at.Name]
		if !ok || at.Value == false {
			continue
		}
		msg, err := rule(value, at.Value)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			out = append(out, RuleError{Rule: at.Name, RuleValue: at.Value, Message: msg})
		}
	}
	return out, nil
}
