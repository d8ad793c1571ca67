package internal

import "strconv"

// Scalar lists the types the typed parameter helpers convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns the value stored under key when it has type T.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

func Param[T Scalar](c Context, name string) T {
	v, _ := parseScalar[T](c.Param(name))
	return v
}

func Query[T Scalar](c Context, name string) T {
	v, _ := parseScalar[T](c.Query(name))
	return v
}

// QueryDefault falls back to def when the parameter is missing or malformed.
func QueryDefault[T Scalar](c Context, name string, def T) T {
	return orDefault(c.Query(name), def)
}

// ArgValue converts a payload value, falling back to def.
func ArgValue[T Scalar](a Args, key string, def T) T {
	return orDefault(a.Value(key), def)
}

func orDefault[T Scalar](raw string, def T) T {
	if raw == "" {
		return def
	}
	if v, ok := parseScalar[T](raw); ok {
		return v
	}
	return def
}

func parseScalar[T Scalar](raw string) (T, bool) {
	var out T
	var (
		v   any
		err error
	)
	switch any(out).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return out, false
	}
	if err != nil {
		return out, false
	}
	return v.(T), true
}
