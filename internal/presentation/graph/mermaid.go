package graph

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/schema"
)

// GenerateMermaid produces a Mermaid flowchart of a schema tree. Each field
// is a node labelled with its name and declared type:
// - Required: ((Circle))
// - Nested object or list of objects: [[Subroutine]]
// - Default: [Rectangle]
// Union branches hang off their field with dotted edges. When findings are
// given, the fields they point at are styled as error or warning.
func GenerateMermaid(root *schema.ObjectSchema, findings []domain.Finding) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    root{{\"schema\"}}\n")

	g := &generator{sb: &sb, ids: make(map[string][]string)}
	g.walk(root, "root", "", "-->")

	if len(findings) > 0 {
		g.overlay(findings)
	}
	return sb.String()
}

type generator struct {
	sb *strings.Builder
	// ids maps a field path (list indices as []) to the nodes drawn for it.
	ids map[string][]string
}

func (g *generator) walk(obj *schema.ObjectSchema, parentID, prefix, arrow string) {
	for _, f := range obj.Fields {
		path := joinPath(prefix, f.Name)
		id := parentID + "_" + sanitizeMermaidID(f.Name)
		g.ids[path] = append(g.ids[path], id)

		d := schema.Describe(f.Node)
		label := fmt.Sprintf("%s: %s", f.Name, typeLabel(d.Type))
		if d.Alias != "" {
			label += fmt.Sprintf(" <br/> alias %s", d.Alias)
		}
		if len(d.OneOf) > 0 {
			label += " <br/> one of " + joinOptions(d.OneOf)
		}

		opener, closer := "[", "]"
		switch {
		case d.Required:
			opener, closer = "((", "))"
		case nested(d.Type) != nil:
			opener, closer = "[[", "]]"
		}

		fmt.Fprintf(g.sb, "    %s%s\"%s\"%s\n", id, opener, escapeLabel(label), closer)
		fmt.Fprintf(g.sb, "    %s %s %s\n", parentID, arrow, id)

		g.children(d.Type, id, path)
	}
}

// children draws what a field's type nests: object fields, list elements
// and union branches.
func (g *generator) children(n schema.Node, id, path string) {
	switch t := n.(type) {
	case *schema.ObjectSchema:
		g.walk(t, id, path, "-->")
	case *schema.Described:
		g.children(t.Type, id, path)
	case *schema.List:
		g.children(schema.Describe(t.Elem).Type, id, path+".[]")
	case *schema.Union:
		for i, c := range t.Candidates {
			if obj := nested(c); obj != nil {
				branch := id + "_" + strconv.Itoa(i)
				fmt.Fprintf(g.sb, "    %s[\"%s\"]\n", branch, escapeLabel(typeLabel(c)))
				fmt.Fprintf(g.sb, "    %s -.-> %s\n", id, branch)
				g.walk(obj, branch, path, "-->")
			}
		}
	}
}

func (g *generator) overlay(findings []domain.Finding) {
	g.sb.WriteString("\n    %% Finding Styles\n")
	g.sb.WriteString("    classDef error fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
	g.sb.WriteString("    classDef warning fill:#fff8e1,stroke:#f9a825,stroke-width:2px,color:#000;\n")

	severity := make(map[string]domain.Severity)
	for _, f := range findings {
		for _, id := range g.ids[schemaPath(f.Key)] {
			if severity[id] != domain.SeverityError {
				severity[id] = f.Severity
			}
		}
	}

	ids := make([]string, 0, len(severity))
	for id := range severity {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(g.sb, "    class %s %s;\n", id, severity[id])
	}
}

// nested returns the object schema a declaration recurses into, looking
// through lists.
func nested(n schema.Node) *schema.ObjectSchema {
	switch t := n.(type) {
	case *schema.ObjectSchema:
		return t
	case *schema.Described:
		return nested(t.Type)
	case *schema.List:
		return nested(t.Elem)
	}
	return nil
}

func typeLabel(n schema.Node) string {
	switch t := n.(type) {
	case schema.Primitive:
		return string(t.Name())
	case *schema.List:
		return "[" + typeLabel(t.Elem) + "]"
	case *schema.Union:
		parts := make([]string, len(t.Candidates))
		for i, c := range t.Candidates {
			parts[i] = typeLabel(c)
		}
		return strings.Join(parts, "|")
	case *schema.ObjectSchema:
		return "object"
	case *schema.Described:
		return typeLabel(t.Type)
	}
	return string(schema.DeclaredTypeName(n))
}

// schemaPath replaces list indices in a finding key with [].
func schemaPath(key string) string {
	parts := strings.Split(key, ".")
	for i, p := range parts {
		if _, err := strconv.Atoi(p); err == nil {
			parts[i] = "[]"
		}
	}
	return strings.Join(parts, ".")
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func joinOptions(options []any) string {
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = fmt.Sprint(o)
	}
	return strings.Join(parts, ", ")
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "[", "_", "]", "_", "|", "_")
	return r.Replace(id)
}
