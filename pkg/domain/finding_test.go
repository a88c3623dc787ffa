package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinding_MarshalJSON(t *testing.T) {
	f := domain.Finding{
		Severity: domain.SeverityError,
		Key:      "prop1",
		Value:    "D",
		Message:  "Invalid option selected for `prop1` must be one of A, B",
		Schema:   &schema.Described{Type: schema.String, OneOf: []any{"A", "B"}},
	}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"severity": "error",
		"key": "prop1",
		"value": "D",
		"message": "Invalid option selected for `+"`prop1`"+` must be one of A, B",
		"schema": {"type": "string", "oneOf": ["A", "B"]}
	}`, string(data))
}

func TestFinding_MarshalJSON_FuncValue(t *testing.T) {
	f := domain.Finding{Severity: domain.SeverityWarning, Key: "cb", Value: func() {}}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":"<func>"`)
}

func TestReject(t *testing.T) {
	assert.NoError(t, domain.Reject(nil))
	assert.NoError(t, domain.Reject([]domain.Finding{{Severity: domain.SeverityWarning, Message: "w"}}))

	err := domain.Reject([]domain.Finding{
		{Severity: domain.SeverityWarning, Message: "advisory"},
		{Severity: domain.SeverityError, Message: "Missing required key `name`"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentRejected))

	var fe *domain.FindingsError
	require.ErrorAs(t, err, &fe)
	require.Len(t, fe.Findings, 1)
	assert.Equal(t, "Missing required key `name`", err.Error())
}

func TestCount(t *testing.T) {
	errs, warnings := domain.Count([]domain.Finding{
		{Severity: domain.SeverityError},
		{Severity: domain.SeverityWarning},
		{Severity: domain.SeverityWarning},
	})
	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, warnings)
	assert.True(t, domain.HasErrors([]domain.Finding{{Severity: domain.SeverityError}}))
	assert.False(t, domain.HasErrors(nil))
}

func TestFinding_UnknownSeverity(t *testing.T) {
	f := domain.Finding{Severity: "info", Message: "fyi"}
	assert.False(t, f.IsError())
	assert.Equal(t, "⚠ fyi", f.String())
	assert.False(t, domain.Severity("info").Known())
	assert.True(t, domain.SeverityError.Known())

	findings := []domain.Finding{f, {Severity: ""}}
	assert.False(t, domain.HasErrors(findings))
	assert.NoError(t, domain.Reject(findings))
	errs, warnings := domain.Count(findings)
	assert.Equal(t, 0, errs)
	assert.Equal(t, 2, warnings)
}
