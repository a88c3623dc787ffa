package registry

import (
	"fmt"
	"net/mail"
	"regexp"

	"github.com/aretw0/conform/pkg/schema"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// RegisterBuiltins adds the callbacks every conform binary ships with:
//
//   - nonEmpty: strings, lists and maps must have at least one element
//   - positive: numbers must be greater than zero
//   - email:    strings must parse as a single RFC 5322 address
//   - slug:     strings must be lowercase words joined by hyphens
func RegisterBuiltins(r *Registry) {
	r.Register("nonEmpty", nonEmpty)
	r.Register("positive", positive)
	r.Register("email", email)
	r.Register("slug", slug)
}

func nonEmpty(value any, _, _ map[string]any, path string) any {
	if items, ok := schema.AsList(value); ok && len(items) == 0 {
		return fmt.Sprintf("`%s` must not be empty", path)
	}
	if m, ok := schema.AsMap(value); ok && len(m) == 0 {
		return fmt.Sprintf("`%s` must not be empty", path)
	}
	if schema.IsFalsy(value) {
		return fmt.Sprintf("`%s` must not be empty", path)
	}
	return nil
}

func positive(value any, _, _ map[string]any, path string) any {
	f, ok := schema.ToFloat(value)
	if !ok || f <= 0 {
		return fmt.Sprintf("`%s` must be a positive number", path)
	}
	return nil
}

func email(value any, _, _ map[string]any, path string) any {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Sprintf("`%s` is not a valid email address", path)
	}
	return nil
}

func slug(value any, _, _ map[string]any, path string) any {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if !slugPattern.MatchString(s) {
		return fmt.Sprintf("`%s` must be a lowercase slug", path)
	}
	return nil
}
