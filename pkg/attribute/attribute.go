// Package attribute loads declarative property definitions.
//
// A resource is described by a YAML file whose `properties` mapping lists
// each column with its attributes (type, default, validation rules,
// sanitizer filters, search flag, alias...). The order of properties and
// attributes is kept: sanitizer filters run in attribute order.
//
//	properties:
//	  uti_login:
//	    type: string
//	    required: true
//	    unique: true
//	    search: true
//	    max_length: 20
//
// Attributes are merged over type defaults: `common` first, then the file
// for the property type.
package attribute

import (
	"fmt"
	"reflect"
)

// Attr is a single named attribute value.
type Attr struct {
	Name  string
	Value any
}

// Attributes is an ordered list of attributes.
type Attributes []Attr

// Get returns the value of the named attribute.
func (a Attributes) Get(name string) (any, bool) {
	for _, at := range a {
		if at.Name == name {
			return at.Value, true
		}
	}
	return nil, false
}

// Has reports whether the named attribute is set to a truthy value.
func (a Attributes) Has(name string) bool {
	v, ok := a.Get(name)
	return ok && Truthy(v)
}

// String returns the named attribute formatted as a string, or "".
func (a Attributes) String(name string) string {
	v, ok := a.Get(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Type returns the `type` attribute.
func (a Attributes) Type() string { return a.String("type") }

// Merge returns a copy of a with the attributes of over applied on top.
// Existing keys keep their position; new keys are appended in order.
func (a Attributes) Merge(over Attributes) Attributes {
	out := make(Attributes, len(a), len(a)+len(over))
	copy(out, a)
	for _, at := range over {
		replaced := false
		for i := range out {
			if out[i].Name == at.Name {
				out[i].Value = at.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, at)
		}
	}
	return out
}

// Truthy reports whether v is neither nil, false, zero nor empty.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
