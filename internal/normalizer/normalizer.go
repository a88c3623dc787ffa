package normalizer

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

// ShapeError reports a value whose structure contradicts a list or object
// declaration, so it cannot be rewritten without corrupting it.
type ShapeError struct {
	Key      string
	Expected schema.TypeName
	Got      schema.TypeName
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("cannot normalize `%s`: expected %s, got %s", e.Key, e.Expected, e.Got)
}

// Is makes errors.Is(err, domain.ErrShapeMismatch) hold.
func (e *ShapeError) Is(target error) bool {
	return target == domain.ErrShapeMismatch
}

// Normalize returns a new document with alias keys rewritten to their
// canonical names, recursing into nested objects and lists of objects.
// Unknown keys are copied verbatim and absent keys stay absent. When both a
// canonical key and its alias are present the canonical value wins.
func Normalize(root *schema.ObjectSchema, doc map[string]any) (map[string]any, error) {
	if doc == nil {
		return map[string]any{}, nil
	}
	return normalizeObject(root, doc, "")
}

func normalizeObject(obj *schema.ObjectSchema, in map[string]any, prefix string) (map[string]any, error) {
	aliases := obj.Aliases()
	out := make(map[string]any, len(in))

	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := in[key]

		canonical := key
		node, ok := obj.Lookup(key)
		if !ok {
			if c, aliased := aliases[key]; aliased {
				if _, direct := in[c]; direct {
					continue
				}
				canonical = c
				node, ok = obj.Lookup(c)
			}
		}
		if !ok {
			out[key] = value
			continue
		}

		normalized, err := normalizeValue(node, value, joinPath(prefix, canonical))
		if err != nil {
			return nil, err
		}
		out[canonical] = normalized
	}
	return out, nil
}

// normalizeValue rewrites value according to the structure its declaration
// resolves to for that value. Scalars and unmatched union values pass
// through untouched.
func normalizeValue(node schema.Node, value any, path string) (any, error) {
	if schema.IsFalsy(value) {
		return value, nil
	}

	switch n := schema.Structure(node, value).(type) {
	case *schema.List:
		items, ok := schema.AsList(value)
		if !ok {
			return nil, &ShapeError{Key: path, Expected: schema.TypeArray, Got: schema.TypeNameOf(value)}
		}
		if _, leaf := n.Elem.(schema.Primitive); leaf {
			return value, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := normalizeValue(n.Elem, item, joinPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *schema.ObjectSchema:
		m, ok := schema.AsMap(value)
		if !ok {
			return nil, &ShapeError{Key: path, Expected: schema.TypeObject, Got: schema.TypeNameOf(value)}
		}
		return normalizeObject(n, m, path)
	}
	return value, nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
