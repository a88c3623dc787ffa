package schema

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

type label string

func TestTypeNameOf(t *testing.T) {
	str := "boxed"
	num := 42
	tests := []struct {
		value any
		want  TypeName
	}{
		{"hello", TypeString},
		{"", TypeString},
		{label("named"), TypeString},
		{&str, TypeString},
		{42, TypeNumber},
		{int8(4), TypeNumber},
		{uint64(4), TypeNumber},
		{3.14, TypeNumber},
		{&num, TypeNumber},
		{json.Number("12"), TypeNumber},
		{true, TypeBoolean},
		{time.Now(), TypeDate},
		{[]any{1, 2}, TypeArray},
		{[]string{"a"}, TypeArray},
		{[2]int{1, 2}, TypeArray},
		{func() {}, TypeFunction},
		{map[string]any{}, TypeObject},
		{struct{}{}, TypeObject},
		{nil, TypeObject},
	}

	for _, tt := range tests {
		if got := TypeNameOf(tt.value); got != tt.want {
			t.Errorf("TypeNameOf(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestDeclaredTypeNameOf(t *testing.T) {
	tests := []struct {
		decl    any
		want    TypeName
		wantErr bool
	}{
		{String, TypeString, false},
		{Function, TypeFunction, false},
		{"string", TypeString, false},
		{"date", TypeDate, false},
		{reflect.TypeOf(0), TypeNumber, false},
		{reflect.TypeOf(time.Time{}), TypeDate, false},
		{reflect.TypeOf(""), TypeString, false},
		{[]any{String}, TypeArray, false},
		{[]any{}, TypeArray, false},
		{map[string]any{"a": String}, TypeObject, false},
		{map[string]any{}, TypeObject, false},
		{map[string]any{"type": Number}, TypeObject, false},
		{map[string]any{"type": Number, "label": String}, TypeObject, false},
		{&Described{Type: Number}, TypeNumber, false},
		{OneOfType(String, Number), "string|number", false},
		{OneOfType(String, []any{Number}), "string|array", false},
		{"invalid", "", true},
		{[]any{String, Number}, "", true},
		{42, "", true},
		{nil, "", true},
	}

	for _, tt := range tests {
		got, err := DeclaredTypeNameOf(tt.decl)
		if (err != nil) != tt.wantErr {
			t.Errorf("DeclaredTypeNameOf(%#v) error = %v, wantErr %v", tt.decl, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DeclaredTypeNameOf(%#v) = %q, want %q", tt.decl, got, tt.want)
		}
	}
}

func TestResolveUnionBranch(t *testing.T) {
	u := OneOfType(String, Number)

	branch, ok := ResolveUnionBranch(u, 20)
	if !ok || branch != Number {
		t.Errorf("ResolveUnionBranch(20) = %v, %v; want Number branch", branch, ok)
	}

	branch, ok = ResolveUnionBranch(u, "x")
	if !ok || branch != String {
		t.Errorf("ResolveUnionBranch(\"x\") = %v, %v; want String branch", branch, ok)
	}

	if branch, ok = ResolveUnionBranch(u, true); ok {
		t.Errorf("ResolveUnionBranch(true) = %v, want no branch", branch)
	}
}

func TestResolveUnionBranch_FirstMatchWins(t *testing.T) {
	first := map[string]any{"a": String}
	second := map[string]any{"b": Number}
	u := OneOfType(first, second)

	branch, ok := ResolveUnionBranch(u, map[string]any{"b": 1})
	if !ok {
		t.Fatal("expected an object branch")
	}
	obj, isObj := branch.(*ObjectSchema)
	if !isObj {
		t.Fatalf("branch = %T, want *ObjectSchema", branch)
	}
	if _, has := obj.Lookup("a"); !has {
		t.Error("expected the first object candidate to win")
	}
}

func TestResolveUnionBranch_Nested(t *testing.T) {
	u := OneOfType(String, OneOfType(Boolean, Number))

	branch, ok := ResolveUnionBranch(u, 3)
	if !ok || branch != Number {
		t.Errorf("nested union branch = %v, %v; want Number", branch, ok)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		node  Node
		value any
		want  bool
	}{
		{String, "a", true},
		{String, 1, false},
		{ListOf(String), []any{"a"}, true},
		{ListOf(String), "a", false},
		{Object, map[string]any{}, true},
		{NewObject(Field{Name: "a", Node: String}), map[string]any{}, true},
		{OneOfType(String, Number), 1, true},
		{OneOfType(String, Number), false, false},
		{&Described{Type: Date}, time.Now(), true},
	}

	for _, tt := range tests {
		if got := Matches(tt.node, tt.value); got != tt.want {
			t.Errorf("Matches(%s, %#v) = %v, want %v", DeclaredTypeName(tt.node), tt.value, got, tt.want)
		}
	}
}

func TestStructure(t *testing.T) {
	nested := map[string]any{"fury": Boolean}
	u := OneOfType(String, map[string]any{"type": nested})

	n := Structure(&Described{Type: u}, map[string]any{"fury": true})
	if _, ok := n.(*ObjectSchema); !ok {
		t.Errorf("Structure(object value) = %T, want *ObjectSchema", n)
	}

	if n := Structure(u, "plain"); n != String {
		t.Errorf("Structure(string value) = %v, want String", n)
	}

	if n := Structure(u, 12); n != nil {
		t.Errorf("Structure(unmatched) = %v, want nil", n)
	}
}

func TestAsListAndAsMap(t *testing.T) {
	items, ok := AsList([]string{"a", "b"})
	if !ok || len(items) != 2 || items[1] != "b" {
		t.Errorf("AsList([]string) = %v, %v", items, ok)
	}
	if _, ok := AsList("nope"); ok {
		t.Error("AsList(string) should fail")
	}

	m, ok := AsMap(map[string]int{"a": 1})
	if !ok || m["a"] != 1 {
		t.Errorf("AsMap(map[string]int) = %v, %v", m, ok)
	}
	if _, ok := AsMap(map[int]int{1: 1}); ok {
		t.Error("AsMap(map[int]int) should fail")
	}
}
