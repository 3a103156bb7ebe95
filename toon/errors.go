package toon

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors
var (
	ErrInvalidSchema = errors.New("toon: invalid schema")
)

// Decode errors, one per ErrorKind
var (
	ErrMalformedHeader = errors.New("toon: malformed header")
	ErrSchemaMismatch  = errors.New("toon: schema mismatch")
	ErrColumnCount     = errors.New("toon: column count mismatch")
	ErrTypeCoercion    = errors.New("toon: type coercion failed")
	ErrRowCount        = errors.New("toon: row count disagrees with header")
)

// Encode errors
var (
	ErrUnsafeArrayElement = errors.New("toon: list element cannot be written unquoted")
	ErrUnsafeValue        = errors.New("toon: value contains a line terminator")
	ErrUnbalancedBrackets = errors.New("toon: unquoted value has unbalanced brackets")
	ErrUnsupportedValue   = errors.New("toon: unsupported value type")
)

// ErrorKind classifies a fatal decode failure.
type ErrorKind uint8

const (
	KindHeader ErrorKind = iota + 1
	KindSchema
	KindColumnCount
	KindTypeCoercion
	KindRowCount
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindSchema:
		return "schema"
	case KindColumnCount:
		return "column-count"
	case KindTypeCoercion:
		return "type-coercion"
	case KindRowCount:
		return "row-count"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindHeader:
		return ErrMalformedHeader
	case KindSchema:
		return ErrSchemaMismatch
	case KindColumnCount:
		return ErrColumnCount
	case KindTypeCoercion:
		return ErrTypeCoercion
	case KindRowCount:
		return ErrRowCount
	}
	return nil
}

// DecodeError describes why a document was rejected.
// Line is 1-based among the document's non-blank lines; 0 when not tied to a line.
type DecodeError struct {
	Kind     ErrorKind
	Line     int
	Field    string   // field being decoded, for KindTypeCoercion
	Message  string   // human-readable detail
	Expected []string // configured field list, for KindSchema
	Got      []string // parsed field list, for KindSchema
	Err      error    // underlying cause, e.g. *strconv.NumError
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	if s := e.Kind.sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString("toon: decode error")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Expected != nil || e.Got != nil {
		fmt.Fprintf(&b, "\nexpected: {%s}\ngot:      {%s}",
			strings.Join(e.Expected, ","), strings.Join(e.Got, ","))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the sentinel for e.Kind.
func (e *DecodeError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a record value that cannot be written unambiguously.
type EncodeError struct {
	Record int    // index of the record in the input
	Field  string // field identifier
	Err    error  // one of the Err* encode sentinels
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("record %d, field %s: %v", e.Record, e.Field, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of a decode failure, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
