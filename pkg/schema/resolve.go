package schema

import (
	"encoding/json"
	"math"
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// TypeNameOf classifies a runtime value. Primitive kinds are checked first,
// then dates, arrays and functions, with object as the fallback. Pointers and
// named types classify like the primitive they wrap.
func TypeNameOf(value any) TypeName {
	switch value.(type) {
	case nil:
		return TypeObject
	case json.Number:
		return TypeNumber
	case time.Time:
		return TypeDate
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return TypeObject
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	}
	if rv.Type() == timeType {
		return TypeDate
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Func:
		return TypeFunction
	}
	return TypeObject
}

// DeclaredTypeName classifies a parsed declaration. Unions yield the
// pipe-joined names of their candidates, which is only meant for display.
func DeclaredTypeName(n Node) TypeName {
	switch t := n.(type) {
	case Primitive:
		return t.name
	case *List:
		return TypeArray
	case *ObjectSchema:
		return TypeObject
	case *Described:
		return DeclaredTypeName(t.Type)
	case *Union:
		names := make([]TypeName, len(t.Candidates))
		for i, c := range t.Candidates {
			names[i] = DeclaredTypeName(c)
		}
		return joinNames(names)
	}
	return ""
}

// DeclaredTypeNameOf classifies a raw type declaration: a marker, a type
// name, a reflect.Type, a one-element list, a map or a union. The
// declaration is read in type position, so any map is an object schema,
// including one with a `type` key.
func DeclaredTypeNameOf(decl any) (TypeName, error) {
	n, err := (&parser{}).parseType(decl, "")
	if err != nil {
		return "", err
	}
	return DeclaredTypeName(n), nil
}

// ResolveUnionBranch returns the first candidate whose declared type name
// equals the value's type name.
func ResolveUnionBranch(u *Union, value any) (Node, bool) {
	if u == nil {
		return nil, false
	}
	name := TypeNameOf(value)
	for _, c := range u.Candidates {
		if nested, ok := c.(*Union); ok {
			if branch, ok := ResolveUnionBranch(nested, value); ok {
				return branch, true
			}
			continue
		}
		if DeclaredTypeName(c) == name {
			return c, true
		}
	}
	return nil, false
}

// Matches reports whether value satisfies the declaration's type.
func Matches(n Node, value any) bool {
	if d, ok := n.(*Described); ok {
		return Matches(d.Type, value)
	}
	if u, ok := n.(*Union); ok {
		_, found := ResolveUnionBranch(u, value)
		return found
	}
	return DeclaredTypeName(n) == TypeNameOf(value)
}

// Structure returns the node that governs recursion into value: descriptors
// are unwrapped and unions narrowed to the branch value matches. It returns
// nil when no union branch applies.
func Structure(n Node, value any) Node {
	for {
		switch t := n.(type) {
		case *Described:
			n = t.Type
		case *Union:
			branch, ok := ResolveUnionBranch(t, value)
			if !ok {
				return nil
			}
			n = branch
		default:
			return n
		}
	}
}

// AsList views slices and arrays as []any.
func AsList(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, true
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// AsMap views string-keyed maps as map[string]any.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Ordered:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// IsFalsy reports whether v counts as empty: nil, false, zero, NaN, the
// empty string and nil pointers or collections. Non-nil empty lists and maps
// are values.
func IsFalsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}

	if n, ok := rv.Interface().(interface{ Float64() (float64, error) }); ok {
		f, err := n.Float64()
		return err == nil && (f == 0 || math.IsNaN(f))
	}

	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// ToFloat reads a number value of any numeric kind, json.Number included.
func ToFloat(v any) (float64, bool) {
	if TypeNameOf(v) != TypeNumber {
		return 0, false
	}
	if n, ok := v.(interface{ Float64() (float64, error) }); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
