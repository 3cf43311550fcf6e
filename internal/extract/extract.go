// Package extract pulls structured JSON payloads out of free-text model
// completions. The model is asked to emit JSON but is not trustworthy:
// output may be wrapped in a fenced code block, surrounded by prose noise,
// or missing fields. This package is strict about field completeness and
// tolerant about formatting, and it never synthesizes missing values.
//
// Every generation feature (introduction, slogan, event plan, atmosphere,
// screening, recommendation, bookkeeping, budget warning, report) reuses
// this one extractor with its own Schema.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind is the primitive shape a schema field must have.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	StringList
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case StringList:
		return "list of strings"
	default:
		return "unknown"
	}
}

// Field declares one expected field of a feature's JSON output.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema is the set of declared fields for one generation feature.
type Schema []Field

// ErrUnparsable reports that the model output could not be parsed as the
// expected JSON shape at all.
var ErrUnparsable = errors.New("model output is not parsable JSON")

// SchemaError reports a required field that is absent, or a declared field
// present with the wrong shape.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation on field %q: %s", e.Field, e.Reason)
}

// Object is a validated extraction result. String values are
// whitespace-trimmed; undeclared fields from the raw output are dropped.
type Object map[string]any

// String returns the named string field ("" when absent).
func (o Object) String(name string) string {
	s, _ := o[name].(string)
	return s
}

// Number returns the named numeric field (0 when absent).
func (o Object) Number(name string) float64 {
	f, _ := o[name].(float64)
	return f
}

// Bool returns the named boolean field (false when absent).
func (o Object) Bool(name string) bool {
	b, _ := o[name].(bool)
	return b
}

// StringList returns the named list-of-strings field (nil when absent).
func (o Object) StringList(name string) []string {
	l, _ := o[name].([]string)
	return l
}

// Has reports whether the named field was present in the output.
func (o Object) Has(name string) bool {
	_, ok := o[name]
	return ok
}

// Extract parses raw model output as a single JSON object and validates it
// against schema. It returns ErrUnparsable when no JSON object can be
// read, or a *SchemaError naming the first offending field.
func Extract(raw string, schema Schema) (Object, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(stripFence(raw)), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return validate(m, schema, "")
}

// ExtractList parses raw model output as a JSON array of objects and
// validates every element against schema. Field errors are reported as
// "entries[i].field".
func ExtractList(raw string, schema Schema) ([]Object, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(raw)), &arr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	out := make([]Object, 0, len(arr))
	for i, elem := range arr {
		var m map[string]any
		if err := json.Unmarshal(elem, &m); err != nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrUnparsable, i)
		}
		obj, err := validate(m, schema, fmt.Sprintf("entries[%d].", i))
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// stripFence removes one leading and one trailing fenced-code-block marker
// (a common LLM formatting artifact) without altering interior content.
func stripFence(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line, including any language tag.
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}

	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}

	return strings.TrimSpace(s)
}

// validate checks every declared field of schema against m and builds the
// trimmed result object. prefix is prepended to field names in errors.
func validate(m map[string]any, schema Schema, prefix string) (Object, error) {
	out := make(Object, len(schema))

	for _, f := range schema {
		v, ok := m[f.Name]
		if !ok || v == nil {
			if f.Required {
				return nil, &SchemaError{Field: prefix + f.Name, Reason: "required field is missing"}
			}
			continue
		}

		switch f.Kind {
		case String:
			s, ok := v.(string)
			if !ok {
				return nil, &SchemaError{Field: prefix + f.Name, Reason: "expected a string"}
			}
			out[f.Name] = strings.TrimSpace(s)

		case Number:
			n, ok := v.(float64)
			if !ok {
				return nil, &SchemaError{Field: prefix + f.Name, Reason: "expected a number"}
			}
			out[f.Name] = n

		case Bool:
			b, ok := v.(bool)
			if !ok {
				return nil, &SchemaError{Field: prefix + f.Name, Reason: "expected a boolean"}
			}
			out[f.Name] = b

		case StringList:
			items, ok := v.([]any)
			if !ok {
				return nil, &SchemaError{Field: prefix + f.Name, Reason: "expected a list of strings"}
			}
			list := make([]string, len(items))
			for i, item := range items {
				s, ok := item.(string)
				if !ok {
					return nil, &SchemaError{Field: prefix + f.Name, Reason: "expected a list of strings"}
				}
				list[i] = strings.TrimSpace(s)
			}
			out[f.Name] = list
		}
	}

	return out, nil
}
