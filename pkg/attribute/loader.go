package attribute

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/tela/pkg/cache"
)

//go:embed types/*.yaml
var typesFS embed.FS

const commonType = "common"

// Loader reads property files from a file system and caches the parsed
// definitions by resource name.
type Loader struct {
	id    string
	fsys  fs.FS
	types map[string]Attributes
	cache cache.Cache[*Definition]
	ttl   time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache replaces the in-memory definition cache.
func WithCache(c cache.Cache[*Definition]) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithCacheTTL sets how long parsed definitions are kept.
// A negative TTL keeps them until the process stops.
func WithCacheTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) { l.ttl = ttl }
}

// WithTypes overrides or adds type defaults. Keys are type names,
// including "common".
func WithTypes(types map[string]Attributes) LoaderOption {
	return func(l *Loader) {
		for name, attrs := range types {
			l.types[name] = attrs
		}
	}
}

// NewLoader creates a loader reading `<resource>.yaml` files from fsys.
func NewLoader(fsys fs.FS, opts ...LoaderOption) (*Loader, error) {
	types, err := builtinTypes()
	if err != nil {
		return nil, err
	}
	l := &Loader{id: uuid.NewString(), fsys: fsys, types: types, ttl: -1}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		l.cache = cache.NewMemory[*Definition]()
	}
	return l, nil
}

// Load returns the definition of the named resource.
func (l *Loader) Load(ctx context.Context, resource string) (*Definition, error) {
	return cache.GetOrSet(ctx, l.cache, "attribute:"+l.id+":"+resource, func(context.Context) (*Definition, time.Duration, error) {
		data, err := fs.ReadFile(l.fsys, resource+".yaml")
		if err != nil {
			return nil, 0, errors.Join(ErrMissingDefinition, fmt.Errorf("%s: %w", resource, err))
		}
		def, err := Parse(resource, data, l.types)
		if err != nil {
			return nil, 0, err
		}
		return def, l.ttl, nil
	})
}

// MustLoad is like Load but panics on error. Use it when wiring models at startup.
func (l *Loader) MustLoad(resource string) *Definition {
	def, err := l.Load(context.Background(), resource)
	if err != nil {
		panic(err)
	}
	return def
}

// Close releases the definition cache.
func (l *Loader) Close() error { return l.cache.Close() }

// Parse decodes a property file and merges each property over its type defaults.
func Parse(resource string, data []byte, types map[string]Attributes) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidDefinition, err)
	}
	root := mappingRoot(&doc)
	if root == nil {
		return nil, fmt.Errorf("%w: %s: expected a mapping", ErrInvalidDefinition, resource)
	}

	propsNode := lookup(root, "properties")
	if propsNode == nil || propsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: missing properties mapping", ErrInvalidDefinition, resource)
	}

	props := make([]Property, 0, len(propsNode.Content)/2)
	for i := 0; i+1 < len(propsNode.Content); i += 2 {
		name := propsNode.Content[i].Value
		attrs, err := decodeAttributes(propsNode.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidDefinition, resource, name, err)
		}

		typ := attrs.Type()
		if typ == "" {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingType, resource, name)
		}
		defaults, ok := types[typ]
		if typ == commonType || !ok {
			return nil, fmt.Errorf("%w: %s.%s: %q", ErrUnknownType, resource, name, typ)
		}

		merged := types[commonType].Merge(defaults).Merge(attrs)
		props = append(props, Property{Name: name, Attributes: merged})
	}

	return NewDefinition(resource, props), nil
}

func builtinTypes() (map[string]Attributes, error) {
	entries, err := fs.ReadDir(typesFS, "types")
	if err != nil {
		return nil, err
	}
	types := make(map[string]Attributes, len(entries))
	for _, e := range entries {
		data, err := fs.ReadFile(typesFS, path.Join("types", e.Name()))
		if err != nil {
			return nil, err
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Join(ErrInvalidDefinition, err)
		}
		attrs, err := decodeAttributes(mappingRoot(&doc))
		if err != nil {
			return nil, err
		}
		types[strings.TrimSuffix(e.Name(), ".yaml")] = attrs
	}
	return types, nil
}

func mappingRoot(doc *yaml.Node) *yaml.Node {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func decodeAttributes(n *yaml.Node) (Attributes, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, errors.New("attributes must be a mapping")
	}
	attrs := make(Attributes, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return nil, err
		}
		attrs = append(attrs, Attr{Name: n.Content[i].Value, Value: v})
	}
	return attrs, nil
}
