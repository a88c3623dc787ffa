package schema

import (
	"reflect"
	"strings"
)

// TypeName is one of the canonical type names shared by runtime values and
// schema declarations.
type TypeName string

const (
	TypeString   TypeName = "string"
	TypeNumber   TypeName = "number"
	TypeBoolean  TypeName = "boolean"
	TypeDate     TypeName = "date"
	TypeArray    TypeName = "array"
	TypeObject   TypeName = "object"
	TypeFunction TypeName = "function"
)

// Node is a parsed schema declaration.
// The set of implementations is closed: Primitive, *List, *Union, *ObjectSchema
// and *Described. Walkers switch over these exhaustively.
type Node interface {
	node()
}

// --- Node Variants ---

// Primitive is a bare type marker.
type Primitive struct {
	name TypeName
}

func (Primitive) node() {}

// Name returns the canonical type name of the marker.
func (p Primitive) Name() TypeName { return p.name }

// Built-in type markers. They play the role of constructor references in
// schema literals: {"age": schema.Number}.
var (
	String   = Primitive{name: TypeString}
	Number   = Primitive{name: TypeNumber}
	Boolean  = Primitive{name: TypeBoolean}
	Date     = Primitive{name: TypeDate}
	Array    = Primitive{name: TypeArray}
	Object   = Primitive{name: TypeObject}
	Function = Primitive{name: TypeFunction}
)

// List declares an array whose elements follow Elem.
type List struct {
	Elem Node
}

func (*List) node() {}

// Union declares that a value must match at least one of its candidates.
// Candidate order is significant: the first match wins.
type Union struct {
	Candidates []Node
}

func (*Union) node() {}

// Field is one named entry of an object schema.
type Field struct {
	Name string
	Node Node
}

// ObjectSchema is a non-empty nested object schema. Fields keep their
// declaration order.
type ObjectSchema struct {
	Fields []Field
	index  map[string]int
}

func (*ObjectSchema) node() {}

// NewObject builds an object schema from fields in order.
// Later duplicates replace earlier ones in place.
func NewObject(fields ...Field) *ObjectSchema {
	o := &ObjectSchema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if i, ok := o.index[f.Name]; ok {
			o.Fields[i] = f
			continue
		}
		o.index[f.Name] = len(o.Fields)
		o.Fields = append(o.Fields, f)
	}
	return o
}

// Lookup returns the node declared for name.
func (o *ObjectSchema) Lookup(name string) (Node, bool) {
	if o == nil {
		return nil, false
	}
	if o.index == nil {
		for _, f := range o.Fields {
			if f.Name == name {
				return f.Node, true
			}
		}
		return nil, false
	}
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.Fields[i].Node, true
}

// Aliases maps every declared alias to its canonical field name.
// When two fields claim the same alias the first declaration keeps it.
func (o *ObjectSchema) Aliases() map[string]string {
	aliases := make(map[string]string)
	if o == nil {
		return aliases
	}
	for _, f := range o.Fields {
		d, ok := f.Node.(*Described)
		if !ok || d.Alias == "" {
			continue
		}
		if _, taken := aliases[d.Alias]; !taken {
			aliases[d.Alias] = f.Name
		}
	}
	return aliases
}

// TestFunc is a custom field check. It receives the field value, the whole
// top-level document, the object that contains the field and the dotted key
// path. A nil, false or empty-string result passes; a string or error becomes
// the finding message; a map or finding value is merged into the finding.
type TestFunc func(value any, doc, parent map[string]any, path string) any

// Described is a field descriptor: a type plus field-level rules.
type Described struct {
	Type      Node
	Alias     string
	Required  bool
	TestEmpty bool
	OneOf     []any
	Test      TestFunc
	Warn      TestFunc
}

func (*Described) node() {}

// invalid stands in for a declaration that could not be parsed when it was
// captured outside Parse (see OneOfType). Parse reports it.
type invalid struct {
	raw any
	err error
}

func (invalid) node() {}

// --- Constructors ---

// OneOfType builds a union from candidate declarations. Candidates may be
// nodes or plain schema data; an unrecognised candidate is reported as
// ErrInvalidSchemaType when the enclosing schema is parsed.
func OneOfType(types ...any) *Union {
	u := &Union{Candidates: make([]Node, 0, len(types))}
	for _, t := range types {
		n, err := (*parser)(nil).parseField(t, "")
		if err != nil {
			n = invalid{raw: t, err: err}
		}
		u.Candidates = append(u.Candidates, n)
	}
	return u
}

// ListOf declares a list of elem.
func ListOf(elem Node) *List {
	return &List{Elem: elem}
}

// Describe returns n as a descriptor. Bare nodes get a descriptor that only
// carries their type.
func Describe(n Node) *Described {
	if d, ok := n.(*Described); ok {
		return d
	}
	return &Described{Type: n}
}

// --- Marker Lookup ---

var markersByName = map[string]Primitive{
	string(TypeString):   String,
	string(TypeNumber):   Number,
	string(TypeBoolean):  Boolean,
	string(TypeDate):     Date,
	string(TypeArray):    Array,
	string(TypeObject):   Object,
	string(TypeFunction): Function,
}

// markerByName resolves a lowercase type name.
func markerByName(name string) (Primitive, bool) {
	p, ok := markersByName[name]
	return p, ok
}

// markerByType resolves a reflect.Type used as a constructor reference.
func markerByType(t reflect.Type) (Primitive, bool) {
	if t == nil {
		return Primitive{}, false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return Date, true
	}
	switch t.Kind() {
	case reflect.String:
		return String, true
	case reflect.Bool:
		return Boolean, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Number, true
	case reflect.Slice, reflect.Array:
		return Array, true
	case reflect.Func:
		return Function, true
	case reflect.Map, reflect.Struct, reflect.Interface:
		return Object, true
	}
	return Primitive{}, false
}

// joinNames renders a union's display name.
func joinNames(names []TypeName) TypeName {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return TypeName(strings.Join(parts, "|"))
}
