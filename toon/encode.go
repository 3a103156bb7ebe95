package toon

import (
	"bytes"
	"strconv"
)

// ============================================================
// Document Encoder
// ============================================================
//
//   events[N]:
//   {f1,f2,...}
//   v1,v2,...
//
// Lines are joined with '\n' and the document has no trailing newline.

// Encoder writes record collections against a fixed schema.
type Encoder struct {
	schema *Schema
}

// NewEncoder creates an encoder bound to schema.
func NewEncoder(schema *Schema) *Encoder {
	return &Encoder{schema: schema}
}

// Encode renders records as a TOON document. Int, float and list values are
// converted to the field's type first. It fails when a value does not fit
// its field (ErrUnsupportedValue) or cannot be written unambiguously (see
// ErrUnsafeArrayElement and ErrUnsafeValue); the error is an *EncodeError
// naming the record and field.
func (e *Encoder) Encode(records []Record) (string, error) {
	var buf bytes.Buffer
	writeHeader(&buf, e.schema.collection, len(records))
	buf.WriteByte('\n')
	buf.WriteString(e.schema.String())

	for i, r := range records {
		buf.WriteByte('\n')
		if err := e.writeRow(&buf, i, r); err != nil {
			return "", err
		}
	}

	return buf.String(), nil
}

func writeHeader(out *bytes.Buffer, collection string, n int) {
	out.WriteString(collection)
	out.WriteByte('[')
	out.WriteString(strconv.Itoa(n))
	out.WriteString("]:")
}

func (e *Encoder) writeRow(out *bytes.Buffer, idx int, r Record) error {
	for i, f := range e.schema.fields {
		if i > 0 {
			out.WriteByte(Separator)
		}

		v, ok := r.Value(f)
		switch {
		case !ok && f.Kind == KindStringList:
			v = []string{}
		case ok && f.Kind != KindString:
			// Numbers and lists are written in the form the decoder parses
			// back, so a whole float64 in an int field becomes "3", not "3.0".
			nv, err := normalizeValue(v, f.Kind)
			if err != nil {
				return &EncodeError{Record: idx, Field: f.Name, Err: err}
			}
			v = nv
		}

		tok, err := EncodeValue(v)
		if err != nil {
			return &EncodeError{Record: idx, Field: f.Name, Err: err}
		}
		out.WriteString(tok)
	}
	return nil
}

// Marshal encodes records with the reference event schema.
func Marshal(records []Record) (string, error) {
	return NewEncoder(EventSchema()).Encode(records)
}
