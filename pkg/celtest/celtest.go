// Package celtest compiles CEL expressions into schema callbacks, so that
// schemas kept as data can carry field checks:
//
//	age:
//	  type: number
//	  test:
//	    cel: "value >= 18"
//	    message: "must be an adult"
//
// Expressions see four variables: value, doc, parent and path. A false
// result or a non-empty string result is a failure; true and "" pass.
package celtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/conform/pkg/schema"
	"github.com/google/cel-go/cel"
)

// ErrNotExpression is returned by Resolve for callback specs that are not
// {cel: ...} maps.
var ErrNotExpression = errors.New("not a cel expression")

// Compiler turns expressions into schema.TestFunc values. Compiled programs
// are memoized per expression; it is safe for concurrent use.
type Compiler struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// New builds a compiler with the value, doc, parent and path variables.
func New() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("parent", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("path", cel.StringType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cel environment: %w", err)
	}
	return &Compiler{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile checks expr and returns a callback that reports message (or a
// generic message when empty) whenever the expression fails.
func (c *Compiler) Compile(expr, message string) (schema.TestFunc, error) {
	prg, err := c.program(expr)
	if err != nil {
		return nil, err
	}

	return func(value any, doc, parent map[string]any, path string) any {
		out, _, err := prg.Eval(map[string]any{
			"value":  plain(value),
			"doc":    plainMap(doc),
			"parent": plainMap(parent),
			"path":   path,
		})
		if err != nil {
			return fmt.Sprintf("`%s`: %v", path, err)
		}

		switch r := out.Value().(type) {
		case bool:
			if r {
				return nil
			}
		case string:
			if r == "" {
				return nil
			}
			if message == "" {
				return r
			}
		default:
			return fmt.Sprintf("`%s`: expression %q returned %T, want bool or string", path, expr, r)
		}

		if message != "" {
			return message
		}
		return fmt.Sprintf("Check `%s` failed for `%s`", expr, path)
	}, nil
}

// Resolve implements schema.CallbackResolver for {cel, message} maps.
func (c *Compiler) Resolve(spec any) (schema.TestFunc, error) {
	m, ok := schema.AsMap(spec)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotExpression, spec)
	}
	expr, ok := m["cel"].(string)
	if !ok || expr == "" {
		return nil, fmt.Errorf("%w: missing cel key", ErrNotExpression)
	}
	message, _ := m["message"].(string)
	return c.Compile(expr, message)
}

func (c *Compiler) program(expr string) (cel.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prg, ok := c.programs[expr]; ok {
		return prg, nil
	}

	ast, iss := c.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("invalid cel expression %q: %w", expr, iss.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to plan cel expression %q: %w", expr, err)
	}
	c.programs[expr] = prg
	return prg, nil
}

// plain rewrites values the CEL type adapter does not know (json.Number,
// typed slices and maps) into their generic forms.
func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		return plainMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	}
	if m, ok := schema.AsMap(v); ok && v != nil {
		return plainMap(m)
	}
	return v
}

func plainMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}
