// Package output parses raw model output in one of the benchmark formats
// and classifies why it could not be read.
//
// Codec failures surface as *ParseError ("could not read the output at
// all"); well-formed output of the wrong shape surfaces as *SchemaViolation
// ("read it, but it disobeys the task contract").
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/Neumenon/toon/toon"
)

// Format names a serialization accepted by Parse.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOON Format = "toon"
)

// ErrUnknownFormat is returned for a format name Parse does not handle.
var ErrUnknownFormat = errors.New("output: unknown format")

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatTOON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ParseError means the output could not be decoded.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s decode failed: %v", strings.ToUpper(string(e.Format)), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaViolation means the output decoded but is not the expected shape.
type SchemaViolation struct {
	Message string
}

func (e *SchemaViolation) Error() string { return "schema violation: " + e.Message }

// Parser decodes model output. It is safe for concurrent use.
type Parser struct {
	decoder *toon.Decoder
	json    fastjson.ParserPool
}

// NewParser creates a parser whose TOON path is bound to schema.
func NewParser(schema *toon.Schema, opts toon.DecodeOptions) *Parser {
	return &Parser{decoder: toon.NewDecoderWithOptions(schema, opts)}
}

var defaultParser = NewParser(toon.EventSchema(), toon.DecodeOptions{})

// Parse decodes raw with the reference event schema. See Parser.Parse.
func Parse(format, raw string) ([]any, error) {
	return defaultParser.Parse(format, raw)
}

// Parse decodes raw as the named format and requires the result to be a
// list. Markdown code fences around the payload are ignored. JSON values
// become map[string]any, []any, string, int64, float64, bool or nil; TOON
// records become map[string]any.
func (p *Parser) Parse(format, raw string) ([]any, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	text := stripFences(raw)

	switch f {
	case FormatTOON:
		recs, err := p.decoder.Decode(text)
		if err != nil {
			return nil, &ParseError{Format: f, Err: err}
		}
		out := make([]any, len(recs))
		for i, r := range recs {
			out[i] = map[string]any(r)
		}
		return out, nil

	default:
		v, err := p.parseJSON(text)
		if err != nil {
			return nil, &ParseError{Format: f, Err: err}
		}
		list, ok := v.([]any)
		if !ok {
			return nil, &SchemaViolation{Message: fmt.Sprintf("output is not a list, got %s", typeName(v))}
		}
		return list, nil
	}
}

// ParseRecords is Parse followed by a check that every element is an
// object.
func (p *Parser) ParseRecords(format, raw string) ([]toon.Record, error) {
	list, err := p.Parse(format, raw)
	if err != nil {
		return nil, err
	}
	recs := make([]toon.Record, len(list))
	for i, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, &SchemaViolation{Message: fmt.Sprintf("element %d is %s, not an object", i, typeName(v))}
		}
		recs[i] = m
	}
	return recs, nil
}

// parseJSON parses text, falling back to the outermost [...] span when the
// model wrapped the array in prose.
func (p *Parser) parseJSON(text string) (any, error) {
	jp := p.json.Get()
	defer p.json.Put(jp)

	v, err := jp.Parse(text)
	if err != nil {
		start, end := strings.IndexByte(text, '['), strings.LastIndexByte(text, ']')
		if start < 0 || end <= start {
			return nil, err
		}
		var ferr error
		if v, ferr = jp.Parse(text[start : end+1]); ferr != nil {
			return nil, err
		}
	}
	return fromJSON(v), nil
}

// fromJSON copies a fastjson value into plain Go values. The result does
// not reference parser memory.
func fromJSON(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		m := make(map[string]any, o.Len())
		o.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = fromJSON(val)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = fromJSON(e)
		}
		return out
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "bool"
	}
	return fmt.Sprintf("%T", v)
}

// stripFences removes a leading ``` line and a trailing ``` line.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
