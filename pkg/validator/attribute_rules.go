package validator

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// attrRule checks value against the attribute value. It returns an empty
// message when the value passes.
type attrRule func(value, ruleValue any) (string, error)

var attrRules = map[string]attrRule{
	"type":       typeRule,
	"min":        minRule,
	"max":        maxRule,
	"in":         inRule,
	"min_length": minLengthRule,
	"length":     lengthRule,
	"max_length": maxLengthRule,
	"email":      emailRule,
	"url":        urlRule,
	"phone":      phoneRule,
	"regex":      regexRule,
}

// IsRule reports whether name is a known attribute rule.
func IsRule(name string) bool {
	_, ok := attrRules[name]
	return ok || name == "required" || name == "unique"
}

func required(value any) bool {
	switch x := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

func typeRule(value, ruleValue any) (string, error) {
	typ := fmt.Sprint(ruleValue)
	var ok bool
	switch typ {
	case "int", "integer":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			ok = true
		}
	case "real", "float", "double":
		switch value.(type) {
		case float32, float64:
			ok = true
		}
	case "string", "char", "varchar", "date":
		_, ok = value.(string)
	case "bool", "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		ok = value != nil && reflect.TypeOf(value).Kind() == reflect.Slice
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	if ok {
		return "", nil
	}
	return "must be of type " + typ, nil
}

func minRule(value, ruleValue any) (string, error) {
	v, ok1 := number(value)
	limit, ok2 := number(ruleValue)
	if !ok2 {
		return "", fmt.Errorf("%w: min %v", ErrInvalidRuleArgs, ruleValue)
	}
	if ok1 && v >= limit {
		return "", nil
	}
	return fmt.Sprintf("must be greater than or equal to %v", ruleValue), nil
}

func maxRule(value, ruleValue any) (string, error) {
	v, ok1 := number(value)
	limit, ok2 := number(ruleValue)
	if !ok2 {
		return "", fmt.Errorf("%w: max %v", ErrInvalidRuleArgs, ruleValue)
	}
	if ok1 && v <= limit {
		return "", nil
	}
	return fmt.Sprintf("must be less than or equal to %v", ruleValue), nil
}

func inRule(value, ruleValue any) (string, error) {
	if ruleValue == nil {
		return "", nil
	}
	list, ok := ruleValue.([]any)
	if !ok {
		return "", fmt.Errorf("%w: in expects a list", ErrInvalidRuleArgs)
	}
	want := fmt.Sprint(value)
	choices := make([]string, len(list))
	for i, c := range list {
		choices[i] = fmt.Sprint(c)
		if choices[i] == want {
			return "", nil
		}
	}
	return "must be one of: " + strings.Join(choices, ", "), nil
}

func lengthOf(value any) int {
	if value == nil {
		return 0
	}
	return utf8.RuneCountInString(fmt.Sprint(value))
}

func lengthArg(name string, ruleValue any) (int, error) {
	n, ok := number(ruleValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s %v", ErrInvalidRuleArgs, name, ruleValue)
	}
	return int(n), nil
}

func minLengthRule(value, ruleValue any) (string, error) {
	n, err := lengthArg("min_length", ruleValue)
	if err != nil || lengthOf(value) >= n {
		return "", err
	}
	return fmt.Sprintf("must be at least %d characters long", n), nil
}

func lengthRule(value, ruleValue any) (string, error) {
	n, err := lengthArg("length", ruleValue)
	if err != nil || lengthOf(value) == n {
		return "", err
	}
	return fmt.Sprintf("must be exactly %d characters long", n), nil
}

func maxLengthRule(value, ruleValue any) (string, error) {
	n, err := lengthArg("max_length", ruleValue)
	if err != nil || lengthOf(value) <= n {
		return "", err
	}
	return fmt.Sprintf("must not exceed %d characters", n), nil
}

func emailRule(value, _ any) (string, error) {
	s := fmt.Sprint(value)
	addr, err := mail.ParseAddress(s)
	if err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".") {
		return "", nil
	}
	return "is not a valid email address", nil
}

func urlRule(value, _ any) (string, error) {
	u, err := url.ParseRequestURI(fmt.Sprint(value))
	if err == nil && u.Scheme != "" && u.Host != "" {
		return "", nil
	}
	return "is not a valid URL", nil
}

const phonePattern = `^(\+ ?([0-9]+))?( ?(\(([0-9]+)\))?([0-9]+)?)+$`

func phoneRule(value, _ any) (string, error) {
	ok, err := matches(phonePattern, fmt.Sprint(value))
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	return "is not a valid phone number", nil
}

func regexRule(value, ruleValue any) (string, error) {
	pattern, ok := ruleValue.(string)
	if !ok {
		return "", fmt.Errorf("%w: regex expects a string", ErrInvalidRuleArgs)
	}
	matched, err := matches(pattern, fmt.Sprint(value))
	if err != nil {
		return "", err
	}
	if matched {
		return "", nil
	}
	return "does not match the pattern " + pattern, nil
}

var patterns sync.Map // string -> *regexp2.Regexp

// matches accepts bare patterns and /delimited/flags patterns.
func matches(pattern, s string) (bool, error) {
	cached, ok := patterns.Load(pattern)
	if !ok {
		expr, opts := pattern, regexp2.None
		if len(expr) > 1 && expr[0] == '/' {
			if end := strings.LastIndex(expr, "/"); end > 0 {
				flags := expr[end+1:]
				expr = expr[1:end]
				if strings.Contains(flags, "i") {
					opts |= regexp2.IgnoreCase
				}
				if strings.Contains(flags, "m") {
					opts |= regexp2.Multiline
				}
				if strings.Contains(flags, "s") {
					opts |= regexp2.Singleline
				}
			}
		}
		re, err := regexp2.Compile(expr, opts)
		if err != nil {
			return false, errors.Join(ErrInvalidRuleArgs, err)
		}
		re.MatchTimeout = time.Second
		cached, _ = patterns.LoadOrStore(pattern, re)
	}
	return cached.(*regexp2.Regexp).MatchString(s)
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
