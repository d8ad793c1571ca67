package internal

import "fmt"

// ExtractorSource reads one candidate value from the request.
type ExtractorSource = func(Context) (string, bool)

// Extractor returns the first non-empty value among its sources. The CSRF
// middleware uses it to find the submitted token.
type Extractor struct {
	sources []ExtractorSource
}

func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok {
			return v, true
		}
	}
	return "", false
}

func nonEmpty(read func(Context) string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := read(c)
		return v, v != ""
	}
}

func FromHeader(name string) ExtractorSource {
	return nonEmpty(func(c Context) string { return c.Header(name) })
}

func FromQuery(name string) ExtractorSource {
	return nonEmpty(func(c Context) string { return c.Query(name) })
}

func FromParam(name string) ExtractorSource {
	return nonEmpty(func(c Context) string { return c.Param(name) })
}

func FromForm(name string) ExtractorSource {
	return nonEmpty(func(c Context) string { return c.Form(name) })
}

// FromSession reads a session value, formatting non-string values with fmt.
func FromSession(key string) ExtractorSource {
	return nonEmpty(func(c Context) string {
		sess, err := c.Session()
		if err != nil {
			return ""
		}
		switch v, _ := sess.GetValue(key); x := v.(type) {
		case nil:
			return ""
		case string:
			return x
		default:
			return fmt.Sprint(x)
		}
	})
}
