package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/conform/pkg/schema"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Known reports whether s is one of the declared severities.
func (s Severity) Known() bool {
	return s == SeverityError || s == SeverityWarning
}

// Finding is one problem reported by the validator.
type Finding struct {
	Severity Severity `json:"severity"`
	// Key is the dotted path of the value, array indices included (items.0.name).
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Message string `json:"message"`
	// Schema is the field declaration that raised the finding, when relevant.
	Schema schema.Node `json:"-"`
	// Extra holds fields merged from a structured callback result.
	Extra map[string]any `json:"extra,omitempty"`
}

// IsError reports whether the finding blocks acceptance of the document.
// Only SeverityError does.
func (f Finding) IsError() bool {
	return f.Severity == SeverityError
}

func (f Finding) String() string {
	symbol := "⚠"
	if f.IsError() {
		symbol = "✗"
	}
	return fmt.Sprintf("%s %s", symbol, f.Message)
}

// MarshalJSON renders Schema back to plain data so findings can travel over
// HTTP and MCP.
func (f Finding) MarshalJSON() ([]byte, error) {
	type plain Finding
	out := struct {
		plain
		Schema any `json:"schema,omitempty"`
	}{plain: plain(f)}
	if f.Value != nil && schema.TypeNameOf(f.Value) == schema.TypeFunction {
		out.plain.Value = "<func>"
	}
	if f.Schema != nil {
		out.Schema = schema.Marshal(f.Schema)
	}
	return json.Marshal(out)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.IsError() {
			return true
		}
	}
	return false
}

// Count splits findings by severity.
func Count(findings []Finding) (errs, warnings int) {
	for _, f := range findings {
		if f.IsError() {
			errs++
		} else {
			warnings++
		}
	}
	return errs, warnings
}

// FindingsError carries the error-severity findings of a rejected document.
type FindingsError struct {
	Findings []Finding
}

func (e *FindingsError) Error() string {
	if len(e.Findings) == 0 {
		return "document rejected"
	}
	if len(e.Findings) == 1 {
		return e.Findings[0].Message
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e.Findings))
	for _, f := range e.Findings {
		sb.WriteString("\n\t")
		sb.WriteString(f.String())
	}
	return sb.String()
}

// Is makes errors.Is(err, ErrDocumentRejected) hold.
func (e *FindingsError) Is(target error) bool {
	return target == ErrDocumentRejected
}

// Reject returns a *FindingsError holding the error-severity findings, or nil
// when there are none.
func Reject(findings []Finding) error {
	var errs []Finding
	for _, f := range findings {
		if f.IsError() {
			errs = append(errs, f)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &FindingsError{Findings: errs}
}
