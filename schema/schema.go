// Package schema provides JSON Schema validation and shaping for records.
//
// A schema is plain data (map[string]any, the same shape as a JSON Schema
// document) so record models can be declared, served and loaded without
// code generation.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"
)

// FieldError describes one value that does not satisfy its schema.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Path + ": " + e.Message
}

// ValidationError enumerates every field that failed validation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type collector struct {
	errs []FieldError
}

func (c *collector) add(path, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: c.errs}
}

// Validate checks a value against a JSON Schema (draft-07 subset).
// Returns nil if validation passes or the schema is nil, otherwise a
// *ValidationError listing every offending field.
//
// Supported JSON Schema keywords:
//   - type (string, number, integer, boolean, object, array, null, or a list of them)
//   - properties, required, additionalProperties
//   - items (for arrays)
//   - minimum, maximum, exclusiveMinimum, exclusiveMaximum
//   - minLength, maxLength
//   - minItems, maxItems
//   - enum
//   - default (applied by Decode, ignored here)
func Validate(schema map[string]any, value any) error {
	if schema == nil {
		return nil
	}
	c := &collector{}
	validateValue(schema, value, "$", c)
	return c.err()
}

func validateValue(schema map[string]any, value any, path string, c *collector) {
	if types := typesOf(schema["type"]); len(types) > 0 {
		if !checkType(types, value) {
			c.add(path, "expected type %s, got %q", describeTypes(types), jsonType(value))
			return
		}
	}

	if enumRaw, ok := schema["enum"]; ok {
		if enumList, ok := enumRaw.([]any); ok && !inEnum(enumList, value) {
			c.add(path, "value not in enum %v", enumList)
		}
	}

	switch v := value.(type) {
	case map[string]any:
		validateObject(schema, v, path, c)
	case []any:
		validateArray(schema, v, path, c)
	case string:
		validateString(schema, v, path, c)
	case float64:
		validateNumber(schema, v, path, c)
	case json.Number:
		f, _ := v.Float64()
		validateNumber(schema, f, path, c)
	}
}

func typesOf(t any) []string {
	switch v := t.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}

func describeTypes(types []string) string {
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, " or ")
}

func checkType(expected []string, value any) bool {
	actual := jsonType(value)
	for _, t := range expected {
		switch {
		case t == actual:
			return true
		case t == "number" && actual == "integer":
			return true
		case t == "integer" && isWhole(value):
			return true
		}
	}
	return false
}

func isWhole(v any) bool {
	switch n := v.(type) {
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	case json.Number:
		if _, ok := new(big.Int).SetString(n.String(), 10); ok {
			return true
		}
		f, err := n.Float64()
		return err == nil && math.Abs(f) < 1<<53 && f == math.Trunc(f)
	case int, int64:
		return true
	}
	return false
}

func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case json.Number:
		return "number"
	case int, int64:
		return "integer"
	default:
		return reflect.TypeOf(v).String()
	}
}

func inEnum(allowed []any, value any) bool {
	vf, numeric := toFloat(value)
	for _, a := range allowed {
		if numeric {
			if af, ok := toFloat(a); ok && af == vf {
				return true
			}
			continue
		}
		if reflect.DeepEqual(a, value) {
			return true
		}
	}
	return false
}

func propertiesOf(schema map[string]any) map[string]any {
	if props, ok := schema["properties"].(map[string]any); ok {
		return props
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validateObject(schema map[string]any, obj map[string]any, path string, c *collector) {
	if reqList, ok := schema["required"].([]any); ok {
		for _, r := range reqList {
			if field, ok := r.(string); ok {
				if _, exists := obj[field]; !exists {
					c.add(path+"."+field, "missing required field")
				}
			}
		}
	}

	props := propertiesOf(schema)
	for _, field := range sortedKeys(props) {
		val, exists := obj[field]
		if !exists {
			continue
		}
		ps, ok := props[field].(map[string]any)
		if !ok {
			continue
		}
		validateValue(ps, val, path+"."+field, c)
	}

	if ap, ok := schema["additionalProperties"].(bool); ok && !ap {
		var extra []string
		for _, field := range sortedKeys(obj) {
			if _, defined := props[field]; !defined {
				extra = append(extra, field)
			}
		}
		if len(extra) > 0 {
			c.add(path, "additional properties not allowed: %s", strings.Join(extra, ", "))
		}
	}
}

func validateArray(schema map[string]any, arr []any, path string, c *collector) {
	if v, ok := toFloat(schema["minItems"]); ok && float64(len(arr)) < v {
		c.add(path, "array length %d is less than minItems %v", len(arr), v)
	}
	if v, ok := toFloat(schema["maxItems"]); ok && float64(len(arr)) > v {
		c.add(path, "array length %d is greater than maxItems %v", len(arr), v)
	}
	if itemSchema, ok := schema["items"].(map[string]any); ok {
		for i, elem := range arr {
			validateValue(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i), c)
		}
	}
}

func validateString(schema map[string]any, s string, path string, c *collector) {
	if v, ok := toFloat(schema["minLength"]); ok && float64(len(s)) < v {
		c.add(path, "string length %d is less than minLength %v", len(s), v)
	}
	if v, ok := toFloat(schema["maxLength"]); ok && float64(len(s)) > v {
		c.add(path, "string length %d is greater than maxLength %v", len(s), v)
	}
}

func validateNumber(schema map[string]any, n float64, path string, c *collector) {
	if v, ok := toFloat(schema["minimum"]); ok && n < v {
		c.add(path, "%v is less than minimum %v", n, v)
	}
	if v, ok := toFloat(schema["maximum"]); ok && n > v {
		c.add(path, "%v is greater than maximum %v", n, v)
	}
	if v, ok := toFloat(schema["exclusiveMinimum"]); ok && n <= v {
		c.add(path, "%v is not greater than exclusiveMinimum %v", n, v)
	}
	if v, ok := toFloat(schema["exclusiveMaximum"]); ok && n >= v {
		c.add(path, "%v is not less than exclusiveMaximum %v", n, v)
	}
}

func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
