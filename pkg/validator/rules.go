package validator

import (
	"cmp"
	"fmt"
	"unicode/utf8"
)

// Rule is a checked condition and the error reported when it does not hold.
type Rule struct {
	Check bool
	Error ValidationError
}

// Apply evaluates rules and returns ValidationErrors for those that failed.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if !r.Check {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func newRule(ok bool, field, rule, msg string, values map[string]any) Rule {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return Rule{
		Check: ok,
		Error: ValidationError{
			Field:             field,
			Message:           msg,
			TranslationKey:    "validation." + rule,
			TranslationValues: values,
		},
	}
}

func RequiredString(field, v string) Rule {
	return newRule(v != "", field, "required", "is required", nil)
}

func MinLenString(field, v string, n int) Rule {
	return newRule(utf8.RuneCountInString(v) >= n, field, "min_length",
		fmt.Sprintf("must be at least %d characters long", n), map[string]any{"min": n})
}

func MaxLenString(field, v string, n int) Rule {
	return newRule(utf8.RuneCountInString(v) <= n, field, "max_length",
		fmt.Sprintf("must not exceed %d characters", n), map[string]any{"max": n})
}

func MinNum[T cmp.Ordered](field string, v, n T) Rule {
	return newRule(v >= n, field, "min",
		fmt.Sprintf("must be at least %v", n), map[string]any{"min": n})
}
