package validator

import (
	"fmt"
	"maps"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

// verdict interprets a callback result. Falsy results pass; strings and
// errors become the message; findings and maps are merged over base.
func verdict(res any, base domain.Finding) (domain.Finding, bool) {
	switch r := res.(type) {
	case nil:
		return base, false
	case bool:
		if !r {
			return base, false
		}
		base.Message = fmt.Sprintf("Invalid value for `%s`", base.Key)
		return base, true
	case string:
		if r == "" {
			return base, false
		}
		base.Message = r
		return base, true
	case error:
		base.Message = r.Error()
		return base, true
	case domain.Finding:
		return mergeFinding(base, r), true
	case *domain.Finding:
		if r == nil {
			return base, false
		}
		return mergeFinding(base, *r), true
	case map[string]any:
		return mergeMap(base, r), true
	}

	if schema.IsFalsy(res) {
		return base, false
	}
	base.Message = fmt.Sprint(res)
	return base, true
}

func mergeFinding(base, over domain.Finding) domain.Finding {
	if over.Severity.Known() {
		base.Severity = over.Severity
	}
	if over.Key != "" {
		base.Key = over.Key
	}
	if over.Value != nil {
		base.Value = over.Value
	}
	if over.Message != "" {
		base.Message = over.Message
	}
	if over.Schema != nil {
		base.Schema = over.Schema
	}
	if len(over.Extra) > 0 {
		base.Extra = maps.Clone(over.Extra)
	}
	if base.Message == "" {
		base.Message = fmt.Sprintf("Invalid value for `%s`", base.Key)
	}
	return base
}

func mergeMap(base domain.Finding, m map[string]any) domain.Finding {
	for k, v := range m {
		switch k {
		case "severity":
			if s, ok := v.(string); ok && domain.Severity(s).Known() {
				base.Severity = domain.Severity(s)
				continue
			}
		case "message":
			if s, ok := v.(string); ok {
				base.Message = s
				continue
			}
		case "key":
			if s, ok := v.(string); ok && s != "" {
				base.Key = s
				continue
			}
		case "value":
			base.Value = v
			continue
		}
		if base.Extra == nil {
			base.Extra = make(map[string]any)
		}
		base.Extra[k] = v
	}
	if base.Message == "" {
		base.Message = fmt.Sprintf("Invalid value for `%s`", base.Key)
	}
	return base
}
