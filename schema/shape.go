package schema

import (
	"encoding/json"
	"fmt"
)

// Decode validates value and returns the normalized record: undeclared
// object fields are dropped (unless additionalProperties is true), absent
// optional fields with a "default" are filled in, and absent optional
// fields without one stay absent.
func Decode(schema map[string]any, value any) (any, error) {
	if err := Validate(schema, value); err != nil {
		return nil, err
	}
	if schema == nil {
		return value, nil
	}
	return shape(schema, value, true), nil
}

// DecodeObject is Decode for schemas whose top-level type is an object.
func DecodeObject(schema map[string]any, value any) (map[string]any, error) {
	out, err := Decode(schema, value)
	if err != nil {
		return nil, err
	}
	obj, ok := out.(map[string]any)
	if !ok {
		return nil, &ValidationError{Errors: []FieldError{{Path: "$", Message: fmt.Sprintf("expected type %q, got %q", "object", jsonType(value))}}}
	}
	return obj, nil
}

// Project shapes a stored record for output: only declared properties are
// kept, and the result must still satisfy the schema.
func Project(schema map[string]any, value any) (any, error) {
	if schema == nil {
		return value, nil
	}
	out := shape(schema, value, false)
	if err := Validate(schema, out); err != nil {
		return nil, fmt.Errorf("record does not match response model: %w", err)
	}
	return out, nil
}

// ProjectAll applies Project to each record in order.
func ProjectAll(schema map[string]any, records []map[string]any) ([]any, error) {
	out := make([]any, 0, len(records))
	for _, rec := range records {
		p, err := Project(schema, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func shape(schema map[string]any, value any, fillDefaults bool) any {
	switch v := value.(type) {
	case map[string]any:
		props := propertiesOf(schema)
		if props == nil {
			return v
		}
		out := make(map[string]any, len(props))
		for field, raw := range props {
			ps, _ := raw.(map[string]any)
			if val, exists := v[field]; exists {
				out[field] = shape(ps, val, fillDefaults)
				continue
			}
			if !fillDefaults || ps == nil {
				continue
			}
			if def, ok := ps["default"]; ok {
				out[field] = copyValue(def)
			}
		}
		if ap, ok := schema["additionalProperties"].(bool); ok && ap {
			for field, val := range v {
				if _, declared := props[field]; !declared {
					out[field] = val
				}
			}
		}
		return out
	case []any:
		items, ok := schema["items"].(map[string]any)
		if !ok {
			return v
		}
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = shape(items, elem, fillDefaults)
		}
		return out
	}
	return value
}

// copyValue deep-copies a default so records never share it.
func copyValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return v
		}
		return out
	}
	return v
}
