package toon

import (
	"fmt"
	"strings"
)

// ============================================================
// Schema Configuration
// ============================================================
//
// A Schema is the fixed, ordered field list both encoder and decoder agree
// on. It is immutable once built and safe to share between goroutines.

// Separator is the field separator used in schema lines, data rows and
// string lists.
const Separator = ','

// Kind is the decoded type of a field.
type Kind uint8

const (
	KindString     Kind = iota // string
	KindInt                    // int64
	KindFloat                  // float64
	KindStringList             // []string, written as [a,b,c]
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStringList:
		return "list<str>"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field is one entry of a schema's field list.
type Field struct {
	Name string // flat ("severity") or dotted ("metadata.latency_ms")
	Kind Kind
}

// Str, Int, Float and StringList are shorthand Field constructors.
func Str(name string) Field        { return Field{Name: name, Kind: KindString} }
func Int(name string) Field        { return Field{Name: name, Kind: KindInt} }
func Float(name string) Field      { return Field{Name: name, Kind: KindFloat} }
func StringList(name string) Field { return Field{Name: name, Kind: KindStringList} }

// Nested reports whether the field addresses a key inside a nested map.
func (f Field) Nested() bool {
	return strings.IndexByte(f.Name, '.') >= 0
}

// Parent returns the top-level record key holding the field.
// For a flat field this is the field name itself.
func (f Field) Parent() string {
	if i := strings.IndexByte(f.Name, '.'); i >= 0 {
		return f.Name[:i]
	}
	return f.Name
}

// Child returns the key inside the parent map, or "" for a flat field.
func (f Field) Child() string {
	if i := strings.IndexByte(f.Name, '.'); i >= 0 {
		return f.Name[i+1:]
	}
	return ""
}

// Schema is an immutable collection name plus ordered field list.
type Schema struct {
	collection string
	fields     []Field
	names      []string
}

// NewSchema builds a schema. Field names must be unique, non-empty, free of
// separator, brace, bracket, quote and whitespace characters, and contain at
// most one dot. A dotted name may not share its parent with a flat field.
func NewSchema(collection string, fields ...Field) (*Schema, error) {
	if !isIdent(collection) {
		return nil, fmt.Errorf("%w: invalid collection name %q", ErrInvalidSchema, collection)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty field list", ErrInvalidSchema)
	}

	s := &Schema{
		collection: collection,
		fields:     make([]Field, len(fields)),
		names:      make([]string, len(fields)),
	}

	seen := make(map[string]bool, len(fields))
	flat := make(map[string]bool)
	parents := make(map[string]bool)

	for i, f := range fields {
		if err := checkFieldName(f.Name); err != nil {
			return nil, err
		}
		if f.Kind > KindStringList {
			return nil, fmt.Errorf("%w: field %s has unknown kind %d", ErrInvalidSchema, f.Name, f.Kind)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate field %s", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true

		if f.Nested() {
			parents[f.Parent()] = true
		} else {
			flat[f.Name] = true
		}

		s.fields[i] = f
		s.names[i] = f.Name
	}

	for p := range parents {
		if flat[p] {
			return nil, fmt.Errorf("%w: %s is both a field and a nested parent", ErrInvalidSchema, p)
		}
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(collection string, fields ...Field) *Schema {
	s, err := NewSchema(collection, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func checkFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	}
	if strings.ContainsAny(name, ",{}[]\" \t\r\n") {
		return fmt.Errorf("%w: field name %q contains a reserved character", ErrInvalidSchema, name)
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("%w: field %s nests more than one level", ErrInvalidSchema, name)
	}
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("%w: field %s has an empty path segment", ErrInvalidSchema, name)
		}
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// Collection returns the collection name written in the header line.
func (s *Schema) Collection() string { return s.collection }

// Names returns a copy of the field identifiers in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// String returns the schema line, e.g. {id,severity,message}.
func (s *Schema) String() string {
	return "{" + strings.Join(s.names, string(Separator)) + "}"
}

// ============================================================
// Reference Event Schema
// ============================================================

var eventSchema = MustSchema("events",
	Str("id"),
	Str("timestamp"),
	Str("service"),
	Str("env"),
	Str("type"),
	Str("status"),
	Int("severity"),
	Str("source"),
	Str("metadata.request_id"),
	Str("metadata.user_id"),
	Str("metadata.region"),
	Int("metadata.retry_count"),
	Float("metadata.latency_ms"),
	StringList("metadata.tags"),
	Str("message"),
)

// EventSchema returns the 15-field schema of the reference event log.
func EventSchema() *Schema {
	return eventSchema
}
