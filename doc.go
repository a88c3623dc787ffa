/*
Package conform validates and normalizes nested plain data against schemas
that are themselves plain data.

A schema maps field names to declarations. A declaration is a type marker
(String, Number, Boolean, Date, Array, Object, Function or their lowercase
names), a one-element list meaning "list of", a union built with OneOfType, a
nested schema, or a descriptor map carrying `type` together with `alias`,
`required`, `testEmpty`, `oneOf`, `test` and `warn`.

# Usage

	person := map[string]any{
		"name": map[string]any{"type": conform.String, "alias": "fname", "required": true},
		"age":  conform.Number,
	}

	findings, err := conform.Validate(person, doc)
	normalized, err := conform.Normalize(person, doc)

Validate never fails on a bad document: every problem becomes a Finding with a
severity, a dotted key path and a message. Normalize returns a copy of the
document with aliased keys renamed to their canonical names.

# Checker

A Checker adds structured logging, lifecycle hooks, a schema catalogue
(ports.SchemaStore) and callbacks declared as data: registry names
(WithRegistry) or CEL expressions (WithExpressions).

	c, err := conform.New(conform.WithStore(store), conform.WithExpressions())
	res, err := c.Check(ctx, conform.Ref("person"), doc)
	if !res.Valid() { ... }

Check normalizes first and validates the normalized copy; Decode additionally
copies an accepted document into a struct.
*/
package conform
