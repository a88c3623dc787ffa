package validator

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

// Option configures a validation run.
type Option func(*walker)

// WithPresence switches emptiness to presence semantics: only absent or nil
// values count as missing, so 0, false and "" satisfy a required field.
func WithPresence() Option {
	return func(w *walker) {
		w.presence = true
	}
}

type walker struct {
	doc      map[string]any
	presence bool
	findings []domain.Finding
}

// Validate walks doc against root and returns the findings in traversal
// order. It never fails: problems in the document are findings, and the
// schema is expected to come from schema.Parse.
func Validate(root *schema.ObjectSchema, doc map[string]any, opts ...Option) []domain.Finding {
	w := &walker{doc: doc}
	for _, opt := range opts {
		opt(w)
	}
	if doc == nil {
		doc = map[string]any{}
		w.doc = doc
	}
	w.validateObject(root, doc, "")
	return w.findings
}

func (w *walker) validateObject(obj *schema.ObjectSchema, parent map[string]any, prefix string) {
	aliases := obj.Aliases()

	for _, name := range visitOrder(obj, parent) {
		path := joinPath(prefix, name)
		value, present := parent[name]

		canonical := name
		node, ok := obj.Lookup(name)
		if !ok {
			canonical, ok = aliases[name]
			if ok {
				node, _ = obj.Lookup(canonical)
			}
		}
		if !ok {
			w.add(domain.Finding{
				Severity: domain.SeverityWarning,
				Key:      path,
				Value:    value,
				Message:  fmt.Sprintf("Unknown key at `%s`", path),
			})
			continue
		}

		d := schema.Describe(node)
		viaAlias := canonical != name

		if d.Required && w.missing(parent, canonical, d.Alias) {
			if !viaAlias {
				w.add(domain.Finding{
					Severity: domain.SeverityError,
					Key:      path,
					Value:    value,
					Message:  fmt.Sprintf("Missing required key `%s`", path),
				})
			}
			continue
		}

		if viaAlias && !present {
			continue
		}
		// The alias carries the field: leave it to the alias iteration.
		if !viaAlias && d.Alias != "" {
			aliasValue, aliasPresent := parent[d.Alias]
			if aliasPresent && (!present || w.isEmpty(value) && !w.isEmpty(aliasValue)) {
				continue
			}
		}

		w.validateField(d, value, path, parent)
	}
}

func (w *walker) validateField(d *schema.Described, value any, path string, parent map[string]any) {
	empty := w.isEmpty(value)
	if empty && !d.Required && !d.TestEmpty {
		return
	}

	if !empty && !schema.Matches(d.Type, value) {
		w.add(domain.Finding{
			Severity: domain.SeverityError,
			Key:      path,
			Value:    value,
			Message: fmt.Sprintf("Invalid type for `%s` expected type <%s> but received value <%s> %s",
				path, schema.DeclaredTypeName(d.Type), schema.TypeNameOf(value), render(value)),
		})
		return
	}

	if len(d.OneOf) > 0 && !empty && !containsOption(d.OneOf, value) {
		w.add(domain.Finding{
			Severity: domain.SeverityError,
			Key:      path,
			Value:    value,
			Schema:   d,
			Message:  fmt.Sprintf("Invalid option selected for `%s` must be one of %s", path, joinOptions(d.OneOf)),
		})
	}

	if d.Warn != nil {
		w.runCallback(d, d.Warn, domain.SeverityWarning, value, path, parent)
	}
	if d.Test != nil {
		w.runCallback(d, d.Test, domain.SeverityError, value, path, parent)
	}

	if isNil(value) {
		return
	}

	switch n := schema.Structure(d.Type, value).(type) {
	case *schema.List:
		items, _ := schema.AsList(value)
		elem := schema.Describe(n.Elem)
		for i, item := range items {
			itemPath := joinPath(path, strconv.Itoa(i))
			if elem.Required && w.isEmpty(item) {
				w.add(domain.Finding{
					Severity: domain.SeverityError,
					Key:      itemPath,
					Value:    item,
					Message:  fmt.Sprintf("Missing required key `%s`", itemPath),
				})
				continue
			}
			w.validateField(elem, item, itemPath, parent)
		}
	case *schema.ObjectSchema:
		if m, ok := schema.AsMap(value); ok {
			w.validateObject(n, m, path)
		}
	}
}

// runCallback invokes a test or warn callback and records its verdict.
// Panics inside the callback propagate to the caller.
func (w *walker) runCallback(d *schema.Described, fn schema.TestFunc, severity domain.Severity, value any, path string, parent map[string]any) {
	res := fn(value, w.doc, parent, path)
	f, failed := verdict(res, domain.Finding{
		Severity: severity,
		Key:      path,
		Value:    value,
		Schema:   d,
	})
	if failed {
		w.add(f)
	}
}

func (w *walker) add(f domain.Finding) {
	w.findings = append(w.findings, f)
}

// missing reports whether neither the canonical key nor its alias holds a
// non-empty value.
func (w *walker) missing(parent map[string]any, canonical, alias string) bool {
	if !w.isEmpty(parent[canonical]) {
		return false
	}
	return alias == "" || w.isEmpty(parent[alias])
}

// isEmpty applies the falsy rule (nil, false, 0, NaN, "" and nil
// collections), or plain nil-ness under WithPresence. Non-nil empty lists and
// maps are values.
func (w *walker) isEmpty(v any) bool {
	if w.presence {
		return isNil(v)
	}
	return schema.IsFalsy(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// visitOrder lists schema fields in declaration order, then declared
// aliases, then the remaining document keys sorted.
func visitOrder(obj *schema.ObjectSchema, parent map[string]any) []string {
	seen := make(map[string]bool, len(obj.Fields)+len(parent))
	names := make([]string, 0, len(obj.Fields)+len(parent))
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, f := range obj.Fields {
		add(f.Name)
	}
	for _, f := range obj.Fields {
		if d, ok := f.Node.(*schema.Described); ok && d.Alias != "" {
			add(d.Alias)
		}
	}

	keys := make([]string, 0, len(parent))
	for k := range parent {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		add(k)
	}
	return names
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// render prints a value the way it appears in type mismatch messages.
func render(v any) string {
	if items, ok := v.([]any); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = render(item)
		}
		return strings.Join(parts, ",")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return render(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func joinOptions(options []any) string {
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = fmt.Sprint(o)
	}
	return strings.Join(parts, ", ")
}

// containsOption compares numbers by value so that 1, int64(1) and 1.0
// select the same option.
func containsOption(options []any, value any) bool {
	vf, vIsNum := schema.ToFloat(value)
	for _, o := range options {
		if vIsNum {
			if of, ok := schema.ToFloat(o); ok && of == vf {
				return true
			}
			continue
		}
		if reflect.DeepEqual(o, value) {
			return true
		}
	}
	return false
}
