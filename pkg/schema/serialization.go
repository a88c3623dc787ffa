package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// callbackPlaceholder stands in for Go callbacks, which have no data form.
const callbackPlaceholder = "<func>"

// Marshal renders a parsed node back to plain data: type names, one-element
// lists, {"oneOfType": [...]} unions and Ordered maps. The result is meant for
// display and storage of callback-free schemas.
func Marshal(n Node) any {
	switch t := n.(type) {
	case Primitive:
		return string(t.name)
	case *List:
		return []any{Marshal(t.Elem)}
	case *Union:
		candidates := make([]any, len(t.Candidates))
		for i, c := range t.Candidates {
			candidates[i] = Marshal(c)
		}
		return Ordered{{Key: unionKey, Value: candidates}}
	case *ObjectSchema:
		out := make(Ordered, 0, len(t.Fields))
		for _, f := range t.Fields {
			out = append(out, Entry{Key: f.Name, Value: Marshal(f.Node)})
		}
		return out
	case *Described:
		out := Ordered{{Key: "type", Value: Marshal(t.Type)}}
		if t.Alias != "" {
			out = append(out, Entry{Key: "alias", Value: t.Alias})
		}
		if t.Required {
			out = append(out, Entry{Key: "required", Value: true})
		}
		if t.TestEmpty {
			out = append(out, Entry{Key: "testEmpty", Value: true})
		}
		if len(t.OneOf) > 0 {
			out = append(out, Entry{Key: "oneOf", Value: t.OneOf})
		}
		if t.Test != nil {
			out = append(out, Entry{Key: "test", Value: callbackPlaceholder})
		}
		if t.Warn != nil {
			out = append(out, Entry{Key: "warn", Value: callbackPlaceholder})
		}
		return out
	}
	return nil
}

// MarshalJSON serializes the schema as an ordered map of field declarations.
func (o *ObjectSchema) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	return json.Marshal(Marshal(o))
}

// MarshalJSON writes entries in declaration order.
func (o Ordered) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", e.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
