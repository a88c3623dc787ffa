package schema

import (
	"reflect"
	"slices"
	"strings"
)

// unionKey lets plain data (YAML or JSON files) declare a union:
// {"oneOfType": ["string", "number"]}.
const unionKey = "oneOfType"

// Entry is one key/value pair of an Ordered map.
type Entry struct {
	Key   string
	Value any
}

// Ordered is a schema map that keeps declaration order. Plain
// map[string]any schemas are walked in sorted key order instead.
type Ordered []Entry

// Get returns the value stored under key.
func (o Ordered) Get(key string) (any, bool) {
	for _, e := range o {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// CallbackResolver turns a data-defined callback (a registered name, an
// expression map) into a TestFunc.
type CallbackResolver func(spec any) (TestFunc, error)

// ParseOption configures Parse.
type ParseOption func(*parser)

// WithCallbacks resolves `test` and `warn` entries that are not Go functions.
func WithCallbacks(resolve CallbackResolver) ParseOption {
	return func(p *parser) {
		p.callbacks = resolve
	}
}

type parser struct {
	callbacks CallbackResolver
}

// Parse converts a top-level schema into its node form. The schema must be
// a field map (map[string]any, Ordered or *ObjectSchema). Nothing is cached:
// callers parse on every run.
func Parse(v any, opts ...ParseOption) (*ObjectSchema, error) {
	p := &parser{}
	for _, opt := range opts {
		opt(p)
	}

	if o, ok := v.(*ObjectSchema); ok {
		if o == nil || len(o.Fields) == 0 {
			return NewObject(), nil
		}
		fields := make([]Field, 0, len(o.Fields))
		for _, f := range o.Fields {
			n, err := p.resolve(f.Node, f.Name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: f.Name, Node: n})
		}
		return NewObject(fields...), nil
	}

	m, ok := asOrdered(v)
	if !ok {
		return nil, invalidType("", v, "schema root must be a field map")
	}
	fields := make([]Field, 0, len(m))
	for _, e := range m {
		n, err := p.parseField(e.Value, e.Key)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: e.Key, Node: n})
	}
	return NewObject(fields...), nil
}

// parseField reads a declaration in field position, where a map may be a
// descriptor. p may be nil when no parse options apply.
func (p *parser) parseField(v any, key string) (Node, error) {
	if m, ok := asOrdered(v); ok {
		return p.parseDescriptor(m, key)
	}
	return p.parseType(v, key)
}

// parseDescriptor separates a descriptor {type, alias, ...} from an implicit
// object schema. A `type` entry that itself carries a `type` key is a field
// literally named "type", so the map is an object schema.
func (p *parser) parseDescriptor(m Ordered, key string) (Node, error) {
	typ, ok := m.Get("type")
	if !ok || carriesType(typ) {
		return p.parseObject(m, key)
	}

	t, err := p.parseType(typ, key)
	if err != nil {
		return nil, err
	}
	d := &Described{Type: t}

	for _, e := range m {
		if e.Value == nil {
			continue
		}
		switch e.Key {
		case "alias":
			s, ok := e.Value.(string)
			if !ok {
				return nil, invalidType(key, e.Value, "alias must be a string")
			}
			d.Alias = s
		case "required":
			b, ok := e.Value.(bool)
			if !ok {
				return nil, invalidType(key, e.Value, "required must be a boolean")
			}
			d.Required = b
		case "testEmpty":
			b, ok := e.Value.(bool)
			if !ok {
				return nil, invalidType(key, e.Value, "testEmpty must be a boolean")
			}
			d.TestEmpty = b
		case "oneOf":
			items, ok := AsList(e.Value)
			if !ok {
				return nil, invalidType(key, e.Value, "oneOf must be a list of values")
			}
			d.OneOf = items
		case "test":
			if d.Test, err = p.parseCallback(e.Value, key); err != nil {
				return nil, err
			}
		case "warn":
			if d.Warn, err = p.parseCallback(e.Value, key); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// parseObject reads a map in type position: keys are field names. An empty
// map is the opaque "any object" marker.
func (p *parser) parseObject(m Ordered, key string) (Node, error) {
	if len(m) == 1 && m[0].Key == unionKey {
		if items, ok := AsList(m[0].Value); ok {
			return p.parseUnion(items, key)
		}
	}
	if len(m) == 0 {
		return Object, nil
	}

	fields := make([]Field, 0, len(m))
	for _, e := range m {
		n, err := p.parseField(e.Value, joinKey(key, e.Key))
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: e.Key, Node: n})
	}
	return NewObject(fields...), nil
}

func (p *parser) parseUnion(items []any, key string) (Node, error) {
	if len(items) == 0 {
		return nil, invalidType(key, items, "union needs at least one candidate")
	}
	u := &Union{Candidates: make([]Node, 0, len(items))}
	for _, item := range items {
		n, err := p.parseField(item, key)
		if err != nil {
			return nil, err
		}
		u.Candidates = append(u.Candidates, n)
	}
	return u, nil
}

// parseType reads a declaration in type position.
func (p *parser) parseType(v any, key string) (Node, error) {
	switch t := v.(type) {
	case nil:
		return nil, invalidType(key, v, "missing type")
	case Node:
		return p.resolve(t, key)
	case string:
		if m, ok := markerByName(t); ok {
			return m, nil
		}
		return nil, invalidType(key, v, "unknown type name %q", t)
	case reflect.Type:
		if m, ok := markerByType(t); ok {
			return m, nil
		}
		return nil, invalidType(key, v, "unsupported kind %s", t.Kind())
	}

	if m, ok := asOrdered(v); ok {
		return p.parseObject(m, key)
	}
	if items, ok := AsList(v); ok {
		switch len(items) {
		case 0:
			return Array, nil
		case 1:
			elem, err := p.parseField(items[0], key)
			if err != nil {
				return nil, err
			}
			return &List{Elem: elem}, nil
		default:
			return nil, invalidType(key, v, "list markers take exactly one element, got %d", len(items))
		}
	}
	return nil, invalidType(key, v, "unrecognised declaration")
}

// resolve re-checks a node built in Go and reparses candidates captured by
// OneOfType, this time with the parser's callback resolver.
func (p *parser) resolve(n Node, key string) (Node, error) {
	switch t := n.(type) {
	case Primitive:
		if t.name == "" {
			return nil, invalidType(key, n, "zero type marker")
		}
		return t, nil
	case *List:
		if t == nil || t.Elem == nil {
			return nil, invalidType(key, n, "list without element type")
		}
		elem, err := p.resolve(t.Elem, key)
		if err != nil {
			return nil, err
		}
		return &List{Elem: elem}, nil
	case *Union:
		if t == nil || len(t.Candidates) == 0 {
			return nil, invalidType(key, n, "union needs at least one candidate")
		}
		u := &Union{Candidates: make([]Node, 0, len(t.Candidates))}
		for _, c := range t.Candidates {
			rc, err := p.resolve(c, key)
			if err != nil {
				return nil, err
			}
			u.Candidates = append(u.Candidates, rc)
		}
		return u, nil
	case *ObjectSchema:
		if t == nil || len(t.Fields) == 0 {
			return Object, nil
		}
		fields := make([]Field, 0, len(t.Fields))
		for _, f := range t.Fields {
			fn, err := p.resolve(f.Node, joinKey(key, f.Name))
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: f.Name, Node: fn})
		}
		return NewObject(fields...), nil
	case *Described:
		if t == nil || t.Type == nil {
			return nil, invalidType(key, n, "descriptor without type")
		}
		typ, err := p.resolve(t.Type, key)
		if err != nil {
			return nil, err
		}
		d := *t
		d.Type = typ
		return &d, nil
	case invalid:
		return p.parseField(t.raw, key)
	}
	return nil, invalidType(key, n, "unknown node")
}

func (p *parser) parseCallback(v any, key string) (TestFunc, error) {
	switch f := v.(type) {
	case TestFunc:
		return f, nil
	case func(any, map[string]any, map[string]any, string) any:
		return f, nil
	case func(any) error:
		return func(value any, _, _ map[string]any, _ string) any {
			if err := f(value); err != nil {
				return err
			}
			return nil
		}, nil
	}

	if p == nil || p.callbacks == nil {
		return nil, invalidType(key, v, "callbacks must be functions unless a resolver is configured")
	}
	fn, err := p.callbacks(v)
	if err != nil {
		return nil, &InvalidTypeError{Key: key, Reason: err.Error(), Value: v, Err: err}
	}
	if fn == nil {
		return nil, invalidType(key, v, "callback resolved to nil")
	}
	return fn, nil
}

// carriesType reports whether v is a map with its own `type` entry.
func carriesType(v any) bool {
	m, ok := asOrdered(v)
	if !ok {
		return false
	}
	_, has := m.Get("type")
	return has
}

// asOrdered views string-keyed maps as Ordered. Plain maps come back in
// sorted key order.
func asOrdered(v any) (Ordered, bool) {
	switch m := v.(type) {
	case Ordered:
		return m, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make(Ordered, 0, len(m))
		for _, k := range keys {
			out = append(out, Entry{Key: k, Value: m[k]})
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(a.String(), b.String())
	})
	out := make(Ordered, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k.String(), Value: rv.MapIndex(k).Interface()})
	}
	return out, true
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
