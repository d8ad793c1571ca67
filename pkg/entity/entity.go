// Package entity maps result rows onto plain Go structs.
//
// Struct fields are bound to columns with the `db` tag and to related rows
// with the `rel` tag. Types may override storage for individual properties
// by implementing Setter or Getter; an override always takes precedence
// over the tagged field.
//
//	type User struct {
//		ID   int64  `db:"uti_id"`
//		Name string `db:"uti_nom"`
//	}
//
//	func (u *User) Set(name string, v any) bool {
//		if name == "uti_nom" {
//			u.Name = strings.ToUpper(fmt.Sprint(v))
//			return true
//		}
//		return false
//	}
package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotStructPointer = errors.New("entity: destination must be a non-nil pointer to a struct")
	ErrUnknownProperty  = errors.New("entity: unknown property")
	ErrConvert          = errors.New("entity: cannot convert value")
)

// Setter overrides how a property is stored. It returns false to fall
// back to the tagged field.
type Setter interface {
	Set(name string, value any) bool
}

// Getter overrides how a property is read. It returns false to fall back
// to the tagged field.
type Getter interface {
	Get(name string) (any, bool)
}

type fieldInfo struct {
	index []int
	name  string
}

type typeInfo struct {
	fields    []fieldInfo
	byName    map[string]fieldInfo
	relations map[string]fieldInfo
}

var typeCache sync.Map // reflect.Type -> *typeInfo

func infoFor(t reflect.Type) *typeInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeInfo)
	}

	info := &typeInfo{byName: make(map[string]fieldInfo), relations: make(map[string]fieldInfo)}
	collectFields(t, nil, info)
	actual, _ := typeCache.LoadOrStore(t, info)
	return actual.(*typeInfo)
}

func collectFields(t reflect.Type, parent []int, info *typeInfo) {
	for i := range t.NumField() {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)
		tag, ok := f.Tag.Lookup("db")
		if f.Anonymous && f.Type.Kind() == reflect.Struct && !ok {
			collectFields(f.Type, index, info)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if rel := f.Tag.Get("rel"); rel != "" && !ok {
			info.relations[rel] = fieldInfo{index: index, name: rel}
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		fi := fieldInfo{index: index, name: name}
		if _, dup := info.byName[name]; dup {
			continue
		}
		info.fields = append(info.fields, fi)
		info.byName[name] = fi
	}
}

// Fields returns the column names bound on the struct type of v, in declaration order.
func Fields(v any) []string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	info := infoFor(t)
	names := make([]string, len(info.fields))
	for i, f := range info.fields {
		names[i] = f.name
	}
	return names
}

// HasProperty reports whether v exposes the named property.
func HasProperty(v any, name string) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	_, ok := infoFor(t).byName[name]
	return ok
}

// Hydrate copies row values onto dst. Unknown columns are ignored.
func Hydrate(dst any, row map[string]any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	for name, value := range row {
		if err := set(dst, rv.Elem(), name, value, false); err != nil {
			return err
		}
	}
	return nil
}

// Set assigns a single property on dst.
func Set(dst any, name string, value any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	return set(dst, rv.Elem(), name, value, true)
}

func set(dst any, sv reflect.Value, name string, value any, strict bool) error {
	if s, ok := dst.(Setter); ok && s.Set(name, value) {
		return nil
	}
	fi, ok := infoFor(sv.Type()).byName[name]
	if !ok {
		if strict {
			return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
		}
		return nil
	}
	field, err := sv.FieldByIndexErr(fi.index)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	if err := assign(field, value); err != nil {
		return fmt.Errorf("%w %q: %w", ErrConvert, name, err)
	}
	return nil
}

// SetRelation stores the rows of a related resource on dst, through its
// Setter or the field tagged `rel:"name"`.
func SetRelation(dst any, name string, value any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	if s, ok := dst.(Setter); ok && s.Set(name, value) {
		return nil
	}
	fi, ok := infoFor(rv.Elem().Type()).relations[name]
	if !ok {
		return fmt.Errorf("%w: relation %q", ErrUnknownProperty, name)
	}
	field, err := rv.Elem().FieldByIndexErr(fi.index)
	if err != nil {
		return fmt.Errorf("%w: relation %q", ErrUnknownProperty, name)
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if !v.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("%w: relation %q: %T to %s", ErrConvert, name, value, field.Type())
	}
	field.Set(v)
	return nil
}

// Get reads a property from src.
func Get(src any, name string) (any, bool) {
	if g, ok := src.(Getter); ok {
		if v, ok := g.Get(name); ok {
			return v, true
		}
	}
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	fi, ok := infoFor(rv.Type()).byName[name]
	if !ok {
		return nil, false
	}
	field, err := rv.FieldByIndexErr(fi.index)
	if err != nil {
		return nil, false
	}
	return field.Interface(), true
}

// ToRow returns the tagged properties of src as a row.
func ToRow(src any) map[string]any {
	names := Fields(src)
	row := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := Get(src, name); ok {
			row[name] = v
		}
	}
	return row
}

var timeType = reflect.TypeOf(time.Time{})

func assign(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(field.Type()) {
		field.Set(v)
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		switch x := value.(type) {
		case []byte:
			field.SetString(string(x))
		case time.Time:
			field.SetString(x.Format(time.DateTime))
		default:
			field.SetString(fmt.Sprint(value))
		}
		return nil
	case reflect.Bool:
		b, err := toBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(numeric(value)), 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(numeric(value)), 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(decimal(value)), 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
		return nil
	case reflect.Struct:
		if field.Type() == timeType {
			if s, ok := value.(string); ok {
				for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
					if t, err := time.Parse(layout, s); err == nil {
						field.Set(reflect.ValueOf(t))
						return nil
					}
				}
			}
		}
	}

	if v.Type().ConvertibleTo(field.Type()) {
		field.Set(v.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("%T to %s", value, field.Type())
}

func numeric(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatInt(int64(x), 10)
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

func decimal(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "on", "yes":
			return true, nil
		case "", "0", "false", "off", "no":
			return false, nil
		}
	}
	return false, fmt.Errorf("%T is not a boolean", v)
}
