package storage

import (
	"fmt"
	"sort"
)

// Doc is a decoded document. Values follow encoding/json conventions:
// strings, float64 for any number, bool, []any and map[string]any.
type Doc = map[string]any

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// Field declares one property of a collection schema.
type Field struct {
	Type     FieldType
	Required bool
	Default  any
	Enum     []string
	Minimum  *float64
}

// Migration transforms a document from version N-1 to version N. It must be
// total: every old-shape document maps to a new-shape document, no errors.
type Migration func(Doc) Doc

// Schema declares a collection's shape and version. Migrations are keyed by
// target version: Migrations[2] takes a v1 document to v2.
type Schema struct {
	Name       string
	Version    int
	Fields     map[string]Field
	Migrations map[int]Migration
}

// Min is a convenience for Field.Minimum literals.
func Min(v float64) *float64 { return &v }

// ApplyDefaults returns a copy of doc with declared defaults filled in for
// absent fields. Adding a defaulted field is the backward-compatible path
// that needs no version bump.
func (s Schema) ApplyDefaults(doc Doc) Doc {
	out := make(Doc, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for name, f := range s.Fields {
		if _, ok := out[name]; !ok && f.Default != nil {
			out[name] = f.Default
		}
	}
	return out
}

// Validate checks doc against the schema. It is a developer safety net wired
// in dev mode only, not a runtime contract consumers must handle.
func (s Schema) Validate(doc Doc) error {
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return &ValidationError{Collection: s.Name, Reason: "missing or non-string id"}
	}

	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := s.Fields[name]
		v, present := doc[name]
		if !present {
			if f.Required {
				return &ValidationError{Collection: s.Name, Reason: fmt.Sprintf("missing required field %q", name)}
			}
			continue
		}
		if err := s.validateValue(name, f, v); err != nil {
			return err
		}
	}
	for name := range doc {
		if name == "id" {
			continue
		}
		if _, known := s.Fields[name]; !known {
			return &ValidationError{Collection: s.Name, Reason: fmt.Sprintf("unknown field %q", name)}
		}
	}
	return nil
}

func (s Schema) validateValue(name string, f Field, v any) error {
	bad := func(want string) error {
		return &ValidationError{Collection: s.Name, Reason: fmt.Sprintf("field %q: expected %s, got %T", name, want, v)}
	}
	switch f.Type {
	case FieldString:
		str, ok := v.(string)
		if !ok {
			return bad("string")
		}
		if len(f.Enum) > 0 && !contains(f.Enum, str) {
			return &ValidationError{Collection: s.Name, Reason: fmt.Sprintf("field %q: %q not in enum", name, str)}
		}
	case FieldNumber, FieldInteger:
		n, ok := asNumber(v)
		if !ok {
			return bad("number")
		}
		if f.Minimum != nil && n < *f.Minimum {
			return &ValidationError{Collection: s.Name, Reason: fmt.Sprintf("field %q: %v below minimum %v", name, n, *f.Minimum)}
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return bad("boolean")
		}
	case FieldArray:
		if _, ok := v.([]any); !ok {
			return bad("array")
		}
	case FieldObject:
		if _, ok := v.(map[string]any); !ok {
			return bad("object")
		}
	default:
		return &ValidationError{Collection: s.Name, Reason: fmt.Sprintf("field %q: unknown field type %q", name, f.Type)}
	}
	return nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
