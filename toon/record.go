package toon

import (
	"fmt"
	"math"
)

// Record is one decoded row. Flat fields are stored under their own name;
// dotted fields are stored in a map[string]any under their parent key.
//
// Decoded values are string, int64, float64 or []string.
type Record map[string]any

// Value resolves a field against the record, descending one level for a
// dotted field. The second result is false when the value is absent.
func (r Record) Value(f Field) (any, bool) {
	if !f.Nested() {
		v, ok := r[f.Name]
		return v, ok && v != nil
	}
	nested, ok := asMap(r[f.Parent()])
	if !ok {
		return nil, false
	}
	v, ok := nested[f.Child()]
	return v, ok && v != nil
}

// Set stores v for the field, creating the nested map on demand.
func (r Record) Set(f Field, v any) {
	if !f.Nested() {
		r[f.Name] = v
		return
	}
	nested, ok := asMap(r[f.Parent()])
	if !ok {
		nested = make(map[string]any)
	}
	nested[f.Child()] = v
	r[f.Parent()] = nested
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}

// Normalize returns a copy of r restricted to the schema's fields, with
// every value converted to the type the decoder produces for that field:
// integer kinds become int64, float32 becomes float64 and []any of strings
// becomes []string. Absent lists become empty lists, as the encoder writes
// them as []; other absent fields stay absent. Nested parents are always
// present, matching decoder output.
func (s *Schema) Normalize(r Record) (Record, error) {
	out := make(Record, len(s.fields))
	for _, f := range s.fields {
		if f.Nested() {
			if _, ok := out[f.Parent()]; !ok {
				out[f.Parent()] = map[string]any{}
			}
		}
		v, ok := r.Value(f)
		if !ok {
			if f.Kind == KindStringList {
				out.Set(f, []string{})
			}
			continue
		}
		nv, err := normalizeValue(v, f.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out.Set(f, nv)
	}
	return out, nil
}

func normalizeValue(v any, k Kind) (any, error) {
	switch k {
	case KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint8:
			return int64(n), nil
		case uint16:
			return int64(n), nil
		case uint32:
			return int64(n), nil
		case uint:
			if uint64(n) > math.MaxInt64 {
				return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, n)
			}
			return int64(n), nil
		case uint64:
			if n > math.MaxInt64 {
				return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, n)
			}
			return int64(n), nil
		case float64:
			// JSON numbers arrive as float64.
			if n == math.Trunc(n) && math.Abs(n) <= 1<<53 {
				return int64(n), nil
			}
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindStringList:
		switch l := v.(type) {
		case []string:
			out := make([]string, len(l))
			copy(out, l)
			return out, nil
		case []any:
			out := make([]string, len(l))
			for i, e := range l {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("%w: list element %d is %T", ErrUnsupportedValue, i, e)
				}
				out[i] = s
			}
			return out, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), nil
		}
	}
	return nil, fmt.Errorf("%w: %T for %s field", ErrUnsupportedValue, v, k)
}
