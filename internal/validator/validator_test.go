package validator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/conform/internal/validator"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, s any, doc map[string]any, opts ...validator.Option) []domain.Finding {
	t.Helper()
	root, err := schema.Parse(s)
	require.NoError(t, err)
	return validator.Validate(root, doc, opts...)
}

func TestValidate_ValidTypes(t *testing.T) {
	tests := []struct {
		name  string
		decl  any
		value any
	}{
		{"String", schema.String, "Hello"},
		{"Boolean", schema.Boolean, true},
		{"Date", schema.Date, time.Now()},
		{"Number", schema.Number, 10},
		{"Object", schema.Object, map[string]any{}},
		{"Array", schema.Array, []any{}},
		{"Function", schema.Function, func() {}},
		{"StringByName", "string", "Hello"},
		{"NumberInTypeProp", map[string]any{"type": schema.Number}, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := validate(t, map[string]any{"prop1": tt.decl}, map[string]any{"prop1": tt.value})
			assert.Empty(t, findings)
		})
	}
}

func TestValidate_InvalidTypes(t *testing.T) {
	tests := []struct {
		name     string
		decl     any
		value    any
		expected string
		received string
	}{
		{"String", schema.String, 22, "string", "number"},
		{"Boolean", schema.Boolean, "hello", "boolean", "string"},
		{"Date", schema.Date, "hello", "date", "string"},
		{"Number", schema.Number, "hello", "number", "string"},
		{"Object", schema.Object, "hello", "object", "string"},
		{"Array", schema.Array, "hello", "array", "string"},
		{"Function", schema.Function, "hello", "function", "string"},
		{"ByName", "boolean", "hello", "boolean", "string"},
		{"InTypeProp", map[string]any{"type": schema.Date}, "hello", "date", "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := validate(t, map[string]any{"prop1": tt.decl}, map[string]any{"prop1": tt.value})
			require.Len(t, findings, 1)
			assert.Equal(t, domain.SeverityError, findings[0].Severity)
			assert.Equal(t, "prop1", findings[0].Key)
			assert.Contains(t, findings[0].Message, "expected type <"+tt.expected+">")
			assert.Contains(t, findings[0].Message, "received value <"+tt.received+">")
		})
	}
}

func TestValidate_MismatchMessage(t *testing.T) {
	findings := validate(t, map[string]any{"prop1": schema.String}, map[string]any{"prop1": 22})
	require.Len(t, findings, 1)
	assert.Equal(t, "Invalid type for `prop1` expected type <string> but received value <number> 22", findings[0].Message)
	assert.Equal(t, 22, findings[0].Value)
}

func TestValidate_UnknownKey(t *testing.T) {
	findings := validate(t, map[string]any{"prop1": schema.String}, map[string]any{"unknown": "D"})
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityWarning, findings[0].Severity)
	assert.Equal(t, "unknown", findings[0].Key)
	assert.Equal(t, "Unknown key at `unknown`", findings[0].Message)
}

func TestValidate_UnknownNestedKey(t *testing.T) {
	findings := validate(t,
		map[string]any{"prop1": map[string]any{"a": schema.String}},
		map[string]any{"prop1": map[string]any{"a": "x", "b": "y"}},
	)
	require.Len(t, findings, 1)
	assert.Equal(t, "prop1.b", findings[0].Key)
	assert.Equal(t, domain.SeverityWarning, findings[0].Severity)
}

func TestValidate_Required(t *testing.T) {
	findings := validate(t,
		map[string]any{"prop1": map[string]any{"type": schema.String, "required": true}},
		map[string]any{},
	)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityError, findings[0].Severity)
	assert.Equal(t, "prop1", findings[0].Key)
	assert.Equal(t, "Missing required key `prop1`", findings[0].Message)
}

func TestValidate_RequiredWithAlias(t *testing.T) {
	s := map[string]any{"name": map[string]any{"type": schema.String, "alias": "fname", "required": true}}

	t.Run("alias satisfies", func(t *testing.T) {
		assert.Empty(t, validate(t, s, map[string]any{"fname": "John"}))
	})

	t.Run("both absent reports once on the canonical key", func(t *testing.T) {
		findings := validate(t, s, map[string]any{})
		require.Len(t, findings, 1)
		assert.Equal(t, "name", findings[0].Key)
		assert.Equal(t, "Missing required key `name`", findings[0].Message)
	})

	t.Run("empty canonical with filled alias", func(t *testing.T) {
		assert.Empty(t, validate(t, s, map[string]any{"name": "", "fname": "John"}))
	})
}

func TestValidate_RequiredFalsyValues(t *testing.T) {
	s := map[string]any{
		"count":  map[string]any{"type": schema.Number, "required": true},
		"active": map[string]any{"type": schema.Boolean, "required": true},
		"label":  map[string]any{"type": schema.String, "required": true},
	}
	doc := map[string]any{"count": 0, "active": false, "label": ""}

	t.Run("falsy rule", func(t *testing.T) {
		findings := validate(t, s, doc)
		require.Len(t, findings, 3)
		for _, f := range findings {
			assert.Contains(t, f.Message, "Missing required key")
		}
	})

	t.Run("presence rule", func(t *testing.T) {
		assert.Empty(t, validate(t, s, doc, validator.WithPresence()))
	})

	t.Run("presence still reports absent keys", func(t *testing.T) {
		findings := validate(t, s, map[string]any{"count": 0, "active": false}, validator.WithPresence())
		require.Len(t, findings, 1)
		assert.Equal(t, "label", findings[0].Key)
	})
}

func TestValidate_OptionalEmptySkipped(t *testing.T) {
	s := map[string]any{"a": schema.String, "b": schema.Number}
	assert.Empty(t, validate(t, s, map[string]any{}))
	assert.Empty(t, validate(t, s, map[string]any{"a": "", "b": 0}))
}

func TestValidate_OneOf(t *testing.T) {
	s := map[string]any{"prop1": map[string]any{"type": schema.String, "oneOf": []any{"A", "B"}}}

	findings := validate(t, s, map[string]any{"prop1": "D"})
	require.Len(t, findings, 1)
	assert.Equal(t, "Invalid option selected for `prop1` must be one of A, B", findings[0].Message)
	assert.NotNil(t, findings[0].Schema)

	assert.Empty(t, validate(t, s, map[string]any{"prop1": "B"}))
}

func TestValidate_OneOfNumeric(t *testing.T) {
	s := map[string]any{"level": map[string]any{"type": schema.Number, "oneOf": []any{1, 2, 3}}}
	assert.Empty(t, validate(t, s, map[string]any{"level": 2.0}))
	assert.Empty(t, validate(t, s, map[string]any{"level": int64(3)}))
	assert.Len(t, validate(t, s, map[string]any{"level": 4}), 1)
}

func TestValidate_MismatchSuppressesFurtherChecks(t *testing.T) {
	called := false
	s := map[string]any{
		"prop1": map[string]any{
			"type":  schema.String,
			"oneOf": []any{"A"},
			"test": func(value any) error {
				called = true
				return errors.New("never")
			},
		},
	}
	findings := validate(t, s, map[string]any{"prop1": 5})
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "Invalid type")
	assert.False(t, called)
}

func TestValidate_Nested(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		findings := validate(t,
			map[string]any{"prop1": map[string]any{"subprop1": schema.String, "subprop2": schema.Number}},
			map[string]any{"prop1": map[string]any{"subprop1": "hello", "subprop2": 122}},
		)
		assert.Empty(t, findings)
	})

	t.Run("invalid object", func(t *testing.T) {
		findings := validate(t,
			schema.Ordered{{Key: "prop1", Value: schema.Ordered{
				{Key: "subprop1", Value: schema.String},
				{Key: "subprop2", Value: schema.Number},
			}}},
			map[string]any{"prop1": map[string]any{"subprop1": 22, "subprop2": "Hello"}},
		)
		require.Len(t, findings, 2)
		assert.Equal(t, "prop1.subprop1", findings[0].Key)
		assert.Contains(t, findings[0].Message, "expected type <string>")
		assert.Contains(t, findings[0].Message, "received value <number>")
		assert.Equal(t, "prop1.subprop2", findings[1].Key)
	})

	t.Run("valid array of objects", func(t *testing.T) {
		findings := validate(t,
			map[string]any{"prop1": []any{map[string]any{"subprop1": schema.String, "subprop2": schema.Number}}},
			map[string]any{"prop1": []any{map[string]any{"subprop1": "hello", "subprop2": 122}}},
		)
		assert.Empty(t, findings)
	})

	t.Run("invalid array of objects", func(t *testing.T) {
		findings := validate(t,
			map[string]any{"prop1": []any{map[string]any{"subprop1": schema.String, "subprop2": schema.Number}}},
			map[string]any{"prop1": []any{
				map[string]any{"subprop1": "ok", "subprop2": 1},
				map[string]any{"subprop1": 22, "subprop2": "Hello"},
			}},
		)
		require.Len(t, findings, 2)
		assert.Equal(t, "prop1.1.subprop1", findings[0].Key)
		assert.Equal(t, "prop1.1.subprop2", findings[1].Key)
	})

	t.Run("array of scalars", func(t *testing.T) {
		findings := validate(t,
			map[string]any{"tags": []any{schema.String}},
			map[string]any{"tags": []any{"a", 2, "c"}},
		)
		require.Len(t, findings, 1)
		assert.Equal(t, "tags.1", findings[0].Key)
	})
}

func TestValidate_FieldNamedType(t *testing.T) {
	t.Run("top level field named type", func(t *testing.T) {
		s := map[string]any{"type": map[string]any{"subprop1": schema.String, "subprop2": schema.Number}}
		assert.Empty(t, validate(t, s, map[string]any{"type": map[string]any{"subprop1": "Hello", "subprop2": 22}}))

		findings := validate(t, s, map[string]any{"type": map[string]any{"subprop1": 22, "subprop2": "Hello"}})
		assert.Len(t, findings, 2)
	})

	t.Run("deep field named type", func(t *testing.T) {
		s := map[string]any{"prop1": map[string]any{"type": map[string]any{"type": schema.String}}}
		assert.Empty(t, validate(t, s, map[string]any{"prop1": map[string]any{"type": "Hello"}}))

		findings := validate(t, s, map[string]any{"prop1": map[string]any{"type": 22}})
		require.Len(t, findings, 1)
		assert.Equal(t, "prop1.type", findings[0].Key)
		assert.Contains(t, findings[0].Message, "expected type <string>")
		assert.Contains(t, findings[0].Message, "received value <number>")
	})

	t.Run("array with descriptor element", func(t *testing.T) {
		s := map[string]any{"prop1": []any{map[string]any{"type": schema.String}}}
		assert.Empty(t, validate(t, s, map[string]any{"prop1": []any{"Hello"}}))
	})
}

func TestValidate_Union(t *testing.T) {
	s := map[string]any{"id": schema.OneOfType(schema.String, schema.Number)}

	assert.Empty(t, validate(t, s, map[string]any{"id": 20}))
	assert.Empty(t, validate(t, s, map[string]any{"id": "x"}))

	findings := validate(t, s, map[string]any{"id": true})
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "expected type <string|number>")
	assert.Contains(t, findings[0].Message, "received value <boolean>")
}

func TestValidate_UnionRecursesIntoBranch(t *testing.T) {
	s := map[string]any{
		"owner": schema.OneOfType(schema.String, map[string]any{"name": schema.String}),
		"items": []any{schema.OneOfType(schema.Number, map[string]any{"qty": schema.Number})},
	}

	findings := validate(t, s, map[string]any{
		"owner": map[string]any{"name": 1},
		"items": []any{1, map[string]any{"qty": "many"}},
	})
	require.Len(t, findings, 2)
	assert.Equal(t, "items.1.qty", findings[0].Key)
	assert.Equal(t, "owner.name", findings[1].Key)
}

func TestValidate_TestCallback(t *testing.T) {
	t.Run("returns nil", func(t *testing.T) {
		s := map[string]any{"prop1": map[string]any{
			"type": schema.String,
			"test": func(any, map[string]any, map[string]any, string) any { return nil },
		}}
		assert.Empty(t, validate(t, s, map[string]any{"prop1": "Hello"}))
	})

	t.Run("returns message", func(t *testing.T) {
		s := map[string]any{"prop1": map[string]any{
			"type": schema.String,
			"test": func(any, map[string]any, map[string]any, string) any { return "I always return an error" },
		}}
		findings := validate(t, s, map[string]any{"prop1": "Hello"})
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityError, findings[0].Severity)
		assert.Equal(t, "I always return an error", findings[0].Message)
	})

	t.Run("returns custom finding", func(t *testing.T) {
		s := map[string]any{"prop1": map[string]any{
			"type": schema.String,
			"test": func(any, map[string]any, map[string]any, string) any {
				return map[string]any{"message": "I'm warning you", "severity": "warning", "hint": "trim"}
			},
		}}
		findings := validate(t, s, map[string]any{"prop1": "Hello"})
		require.Len(t, findings, 1)
		assert.Equal(t, "I'm warning you", findings[0].Message)
		assert.Equal(t, domain.SeverityWarning, findings[0].Severity)
		assert.Equal(t, map[string]any{"hint": "trim"}, findings[0].Extra)
	})

	t.Run("unknown severity is kept as extra", func(t *testing.T) {
		s := map[string]any{"prop1": map[string]any{
			"type": schema.String,
			"warn": func(any, map[string]any, map[string]any, string) any {
				return map[string]any{"message": "just so you know", "severity": "info"}
			},
			"test": func(any, map[string]any, map[string]any, string) any {
				return domain.Finding{Severity: "fatal", Message: "nope"}
			},
		}}
		findings := validate(t, s, map[string]any{"prop1": "Hello"})
		require.Len(t, findings, 2)
		assert.Equal(t, domain.SeverityWarning, findings[0].Severity)
		assert.Equal(t, map[string]any{"severity": "info"}, findings[0].Extra)
		assert.Equal(t, domain.SeverityError, findings[1].Severity)

		errs, warnings := domain.Count(findings)
		assert.Equal(t, 1, errs)
		assert.Equal(t, 1, warnings)
	})

	t.Run("returns error", func(t *testing.T) {
		s := map[string]any{"prop1": map[string]any{
			"type": schema.String,
			"test": func(value any) error { return errors.New("too short") },
		}}
		findings := validate(t, s, map[string]any{"prop1": "Hi"})
		require.Len(t, findings, 1)
		assert.Equal(t, "too short", findings[0].Message)
	})

	t.Run("called with value, document, parent and path", func(t *testing.T) {
		type call struct {
			value  any
			doc    map[string]any
			parent map[string]any
			path   string
		}
		var calls []call
		fn := func(value any, doc, parent map[string]any, path string) any {
			calls = append(calls, call{value, doc, parent, path})
			return nil
		}

		sub := map[string]any{"sub1": "test1", "sub2": "test2"}
		doc := map[string]any{"prop1": sub}
		validate(t, map[string]any{"prop1": map[string]any{
			"sub1": map[string]any{"type": schema.String, "test": fn},
			"sub2": schema.String,
		}}, doc)

		require.Len(t, calls, 1)
		assert.Equal(t, "test1", calls[0].value)
		assert.Equal(t, doc, calls[0].doc)
		assert.Equal(t, sub, calls[0].parent)
		assert.Equal(t, "prop1.sub1", calls[0].path)
	})

	t.Run("panics propagate", func(t *testing.T) {
		s := map[string]any{"prop1": map[string]any{
			"type": schema.String,
			"test": func(any, map[string]any, map[string]any, string) any { panic("boom") },
		}}
		assert.Panics(t, func() { validate(t, s, map[string]any{"prop1": "x"}) })
	})
}

func TestValidate_TestEmpty(t *testing.T) {
	var seen []any
	s := map[string]any{"note": map[string]any{
		"type":      schema.String,
		"testEmpty": true,
		"test": func(value any, _, _ map[string]any, _ string) any {
			seen = append(seen, value)
			if value == nil || value == "" {
				return "note is empty"
			}
			return nil
		},
	}}

	findings := validate(t, s, map[string]any{})
	require.Len(t, findings, 1)
	assert.Equal(t, "note is empty", findings[0].Message)
	assert.Equal(t, []any{nil}, seen)
}

func TestValidate_WarnCallback(t *testing.T) {
	s := map[string]any{"age": map[string]any{
		"type": schema.Number,
		"warn": func(value any, _, _ map[string]any, _ string) any {
			if value.(int) > 120 {
				return "suspicious age"
			}
			return nil
		},
		"test": func(value any, _, _ map[string]any, _ string) any {
			return value.(int) > 150
		},
	}}

	findings := validate(t, s, map[string]any{"age": 200})
	require.Len(t, findings, 2)
	assert.Equal(t, domain.SeverityWarning, findings[0].Severity)
	assert.Equal(t, "suspicious age", findings[0].Message)
	assert.Equal(t, domain.SeverityError, findings[1].Severity)
	assert.Equal(t, "Invalid value for `age`", findings[1].Message)
}

func TestValidate_Alias(t *testing.T) {
	s := map[string]any{"prop1": map[string]any{"alias": "prop2", "type": schema.String}}

	assert.Empty(t, validate(t, s, map[string]any{"prop2": "Hello"}))

	findings := validate(t, s, map[string]any{"prop2": 5})
	require.Len(t, findings, 1)
	assert.Equal(t, "prop2", findings[0].Key)
}

func TestValidate_Order(t *testing.T) {
	s := schema.Ordered{
		{Key: "b", Value: map[string]any{"type": schema.String, "required": true}},
		{Key: "a", Value: schema.Number},
	}
	findings := validate(t, s, map[string]any{"a": "x", "z": 1, "y": 2})
	require.Len(t, findings, 4)

	keys := make([]string, len(findings))
	for i, f := range findings {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"b", "a", "y", "z"}, keys)
}

func TestIsFalsy_Values(t *testing.T) {
	var nilPtr *string
	zero := 0
	assert.True(t, schema.IsFalsy(nil))
	assert.True(t, schema.IsFalsy(false))
	assert.True(t, schema.IsFalsy(0))
	assert.True(t, schema.IsFalsy(0.0))
	assert.True(t, schema.IsFalsy(""))
	assert.True(t, schema.IsFalsy(nilPtr))
	assert.True(t, schema.IsFalsy(&zero))
	assert.True(t, schema.IsFalsy([]any(nil)))

	assert.False(t, schema.IsFalsy([]any{}))
	assert.False(t, schema.IsFalsy(map[string]any{}))
	assert.False(t, schema.IsFalsy("x"))
	assert.False(t, schema.IsFalsy(time.Time{}))
}
