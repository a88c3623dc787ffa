package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/conform/internal/presentation/graph"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

func parse(t *testing.T, s any) *schema.ObjectSchema {
	t.Helper()
	root, err := schema.Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return root
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		schema   schema.Ordered
		findings []domain.Finding
		contains []string
		excludes []string
	}{
		{
			name: "Field Shapes",
			schema: schema.Ordered{
				{Key: "name", Value: schema.Ordered{{Key: "type", Value: "string"}, {Key: "required", Value: true}}},
				{Key: "age", Value: "number"},
				{Key: "owner", Value: schema.Ordered{{Key: "id", Value: "string"}}},
			},
			contains: []string{
				`root_name(("name: string"))`,
				`root_age["age: number"]`,
				`root_owner[["owner: object"]]`,
				"root --> root_name",
				"root_owner --> root_owner_id",
			},
			excludes: []string{"classDef"},
		},
		{
			name: "Alias And Options",
			schema: schema.Ordered{
				{Key: "name", Value: schema.Ordered{{Key: "type", Value: "string"}, {Key: "alias", Value: "fname"}}},
				{Key: "size", Value: schema.Ordered{{Key: "type", Value: "string"}, {Key: "oneOf", Value: []any{"S", "M"}}}},
			},
			contains: []string{
				`root_name["name: string <br/> alias fname"]`,
				`root_size["size: string <br/> one of S, M"]`,
			},
		},
		{
			name: "List Of Objects",
			schema: schema.Ordered{
				{Key: "pets", Value: []any{schema.Ordered{{Key: "kind", Value: "string"}}}},
				{Key: "tags", Value: []any{"string"}},
			},
			contains: []string{
				`root_pets[["pets: [object]"]]`,
				`root_tags["tags: [string]"]`,
				"root_pets --> root_pets_kind",
			},
		},
		{
			name: "Union Branches",
			schema: schema.Ordered{
				{Key: "id", Value: schema.OneOfType(schema.String, map[string]any{"code": schema.Number})},
			},
			contains: []string{
				`root_id["id: string|object"]`,
				"root_id -.-> root_id_1",
				"root_id_1 --> root_id_1_code",
			},
		},
		{
			name: "Finding Overlay",
			schema: schema.Ordered{
				{Key: "pets", Value: []any{schema.Ordered{{Key: "kind", Value: "string"}}}},
				{Key: "age", Value: "number"},
			},
			findings: []domain.Finding{
				{Severity: domain.SeverityWarning, Key: "age"},
				{Severity: domain.SeverityError, Key: "pets.3.kind"},
				{Severity: domain.SeverityWarning, Key: "pets.1.kind"},
			},
			contains: []string{
				"classDef error",
				"class root_age warning;",
				"class root_pets_kind error;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(parse(t, tt.schema), tt.findings)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("expected output not to contain %q, got:\n%s", unwanted, got)
				}
			}
		})
	}
}
