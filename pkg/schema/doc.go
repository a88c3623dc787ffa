// Package schema models schema declarations for the conform validator and
// normalizer.
//
// A schema is plain data. Each field maps to a declaration that is one of:
//
//   - a type marker: schema.String, schema.Number, schema.Boolean, schema.Date,
//     schema.Array, schema.Object, schema.Function, the same names as lowercase
//     strings ("string", "number", ...) or a reflect.Type;
//   - a one-element list, meaning "list of" that element: []any{schema.String};
//   - a union built with OneOfType (or {"oneOfType": [...]} in data files);
//   - a descriptor map with a `type` entry plus `alias`, `required`,
//     `testEmpty`, `oneOf`, `test` and `warn`;
//   - any other map, which is a nested object schema whose keys are fields.
//
// Basic usage:
//
//	s := map[string]any{
//	    "name": map[string]any{"type": schema.String, "alias": "fname", "required": true},
//	    "age":  schema.Number,
//	    "tags": []any{schema.String},
//	    "id":   schema.OneOfType(schema.String, schema.Number),
//	}
//
//	root, err := schema.Parse(s)
//
// Parse turns the data into the closed node sum type (Primitive, *List,
// *Union, *ObjectSchema, *Described) that the validator and normalizer walk.
// Unrecognised declarations fail with an error matching ErrInvalidSchemaType.
//
// The type resolver (TypeNameOf, DeclaredTypeName, ResolveUnionBranch,
// Matches) is shared by both walkers so they classify values identically.
package schema
