package attribute

import "maps"

// Property is a named column with its merged attributes.
type Property struct {
	Name       string
	Attributes Attributes
}

// Definition is the ordered set of properties of a resource.
type Definition struct {
	resource   string
	properties []Property
	index      map[string]int
}

// NewDefinition builds a definition from already merged properties.
func NewDefinition(resource string, props []Property) *Definition {
	d := &Definition{
		resource:   resource,
		properties: props,
		index:      make(map[string]int, len(props)),
	}
	for i, p := range props {
		d.index[p.Name] = i
	}
	return d
}

// Resource returns the resource name the definition was loaded for.
func (d *Definition) Resource() string { return d.resource }

// Properties returns the properties in declaration order.
func (d *Definition) Properties() []Property { return d.properties }

// Names returns the property names in declaration order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.properties))
	for i, p := range d.properties {
		names[i] = p.Name
	}
	return names
}

// Property returns the attributes of the named property.
func (d *Definition) Property(name string) (Attributes, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.properties[i].Attributes, true
}

// HasProperty reports whether the property is defined.
func (d *Definition) HasProperty(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Alias returns the display name of a property, falling back to its name.
func (d *Definition) Alias(name string) string {
	if attrs, ok := d.Property(name); ok {
		if alias := attrs.String("alias"); alias != "" {
			return alias
		}
	}
	return name
}

// Aliases returns the display name of every property.
func (d *Definition) Aliases() map[string]string {
	out := make(map[string]string, len(d.properties))
	for _, p := range d.properties {
		out[p.Name] = d.Alias(p.Name)
	}
	return out
}

// Defaults returns the `default` attribute of every property that sets one.
func (d *Definition) Defaults() map[string]any {
	out := make(map[string]any, len(d.properties))
	for _, p := range d.properties {
		if v, ok := p.Attributes.Get("default"); ok && v != nil {
			out[p.Name] = v
		}
	}
	return out
}

// Filter selects properties by their attributes.
type Filter func(Attributes) bool

// Has selects properties whose named attribute is truthy.
func Has(name string) Filter {
	return func(a Attributes) bool { return a.Has(name) }
}

// Match selects properties whose attributes equal every given value.
// A missing attribute compares as false.
func Match(values map[string]any) Filter {
	values = maps.Clone(values)
	return func(a Attributes) bool {
		for k, want := range values {
			got, ok := a.Get(k)
			if !ok {
				got = false
			}
			if !equal(got, want) {
				return false
			}
		}
		return true
	}
}

// Filter returns the names of the properties accepted by f, in order.
// A nil filter selects every property.
func (d *Definition) Filter(f Filter) []string {
	var names []string
	for _, p := range d.properties {
		if f == nil || f(p.Attributes) {
			names = append(names, p.Name)
		}
	}
	return names
}

func equal(a, b any) bool {
	switch x := a.(type) {
	case int:
		switch y := b.(type) {
		case int:
			return x == y
		case int64:
			return int64(x) == y
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := b.(type) {
		case int:
			return x == float64(y)
		case float64:
			return x == y
		}
	case string, bool:
		return a == b
	}
	return a == nil && b == nil
}
