package validator

import (
	"fmt"
	"slices"
	"strings"
)

// RuleError is a failed attribute rule.
type RuleError struct {
	Rule      string
	RuleValue any
	Message   string
}

// PropertyError gathers the failed rules of one property.
type PropertyError struct {
	Property string
	Alias    string
	Value    any
	Rules    []RuleError
}

// Add appends a failed rule.
func (p *PropertyError) Add(r RuleError) { p.Rules = append(p.Rules, r) }

// Has reports whether the named rule failed.
func (p *PropertyError) Has(rule string) bool {
	return slices.ContainsFunc(p.Rules, func(r RuleError) bool { return r.Rule == rule })
}

// PropertyErrors maps property names to their failed rules.
type PropertyErrors map[string]*PropertyError

func (pe PropertyErrors) Error() string {
	parts := make([]string, 0, len(pe))
	for _, name := range pe.names() {
		p := pe[name]
		for _, r := range p.Rules {
			parts = append(parts, fmt.Sprintf("%s %s", p.Alias, r.Message))
		}
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (pe PropertyErrors) Unwrap() error { return ErrValidation }

// Err returns pe as an error, or nil when there is nothing to report.
func (pe PropertyErrors) Err() error {
	if len(pe) == 0 {
		return nil
	}
	return pe
}

// Flatten converts the property errors into translatable field errors,
// sorted by property name.
func (pe PropertyErrors) Flatten() ValidationErrors {
	var out ValidationErrors
	for _, name := range pe.names() {
		p := pe[name]
		for _, r := range p.Rules {
			out = append(out, ValidationError{
				Field:          name,
				Message:        r.Message,
				TranslationKey: "validation." + r.Rule,
				TranslationValues: map[string]any{
					"field": p.Alias,
					"value": r.RuleValue,
				},
			})
		}
	}
	return out
}

func (pe PropertyErrors) add(name, alias string, value any, r RuleError) {
	p, ok := pe[name]
	if !ok {
		p = &PropertyError{Property: name, Alias: alias, Value: value}
		pe[name] = p
	}
	p.Add(r)
}

func (pe PropertyErrors) names() []string {
	names := make([]string, 0, len(pe))
	for name := range pe {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
