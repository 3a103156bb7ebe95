package toon

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ============================================================
// Document Decoder
// ============================================================
//
// Decoding fails fast: the first malformed header, schema line, row or
// token aborts the call and no records are returned.

// DecodeOptions configures decoding behavior.
type DecodeOptions struct {
	// StrictCount makes a header count that disagrees with the number of
	// data rows a KindRowCount error. When false the disagreement is logged.
	StrictCount bool

	// Logger receives warnings. Nil discards them.
	Logger *slog.Logger
}

// Document is a decoded TOON document.
type Document struct {
	Collection string
	Declared   int // record count stated by the header
	Records    []Record
}

// Decoder parses documents written against a fixed schema.
type Decoder struct {
	schema *Schema
	opts   DecodeOptions
	header *regexp.Regexp
	log    *slog.Logger
}

// NewDecoder creates a lenient decoder bound to schema.
func NewDecoder(schema *Schema) *Decoder {
	return NewDecoderWithOptions(schema, DecodeOptions{})
}

// NewDecoderWithOptions creates a decoder with custom options.
func NewDecoderWithOptions(schema *Schema, opts DecodeOptions) *Decoder {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Decoder{
		schema: schema,
		opts:   opts,
		header: regexp.MustCompile(`^` + regexp.QuoteMeta(schema.collection) + `\[(\d+)\]:$`),
		log:    log,
	}
}

// Decode parses text and returns its records.
func (d *Decoder) Decode(text string) ([]Record, error) {
	doc, err := d.DecodeDocument(text)
	if err != nil {
		return nil, err
	}
	return doc.Records, nil
}

// DecodeDocument parses text and returns the records together with the
// header's declared count. Input with no non-blank lines yields an empty
// document.
func (d *Decoder) DecodeDocument(text string) (*Document, error) {
	lines := splitLines(text)
	doc := &Document{Collection: d.schema.collection, Records: []Record{}}
	if len(lines) == 0 {
		return doc, nil
	}

	declared, err := d.parseHeader(lines[0])
	if err != nil {
		return nil, err
	}
	doc.Declared = declared

	if len(lines) < 2 {
		return nil, &DecodeError{Kind: KindSchema, Line: 2, Message: "missing schema line"}
	}
	if err := d.parseSchemaLine(lines[1]); err != nil {
		return nil, err
	}

	doc.Records = make([]Record, 0, len(lines)-2)
	for i, line := range lines[2:] {
		rec, err := d.parseRow(line)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Line = i + 3
			}
			return nil, err
		}
		doc.Records = append(doc.Records, rec)
	}

	if n := len(doc.Records); n != declared {
		if d.opts.StrictCount {
			return nil, &DecodeError{
				Kind:    KindRowCount,
				Line:    1,
				Message: fmt.Sprintf("header declares %d, decoded %d", declared, n),
			}
		}
		d.log.Warn("toon: row count disagrees with header",
			"collection", d.schema.collection, "declared", declared, "decoded", n)
	}

	return doc, nil
}

// splitLines returns the trimmed non-blank lines of text.
func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// parseHeader parses: name[N]:
func (d *Decoder) parseHeader(line string) (int, error) {
	m := d.header.FindStringSubmatch(line)
	if m == nil {
		return 0, &DecodeError{
			Kind:    KindHeader,
			Line:    1,
			Message: fmt.Sprintf("expected %s[N]:, got %q", d.schema.collection, line),
		}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &DecodeError{Kind: KindHeader, Line: 1, Err: err}
	}
	return n, nil
}

// parseSchemaLine parses {f1,f2,...} and requires it to equal the
// configured field list, member for member.
func (d *Decoder) parseSchemaLine(line string) error {
	if len(line) < 2 || line[0] != '{' || line[len(line)-1] != '}' {
		return &DecodeError{
			Kind:    KindSchema,
			Line:    2,
			Message: fmt.Sprintf("malformed schema line %q", line),
		}
	}

	got := strings.Split(line[1:len(line)-1], string(Separator))
	if !slices.Equal(got, d.schema.names) {
		return &DecodeError{
			Kind:     KindSchema,
			Line:     2,
			Expected: d.schema.Names(),
			Got:      got,
		}
	}
	return nil
}

// parseRow decodes one data row into a record.
func (d *Decoder) parseRow(line string) (Record, error) {
	tokens := SplitRow(line)
	if len(tokens) != len(d.schema.fields) {
		return nil, &DecodeError{
			Kind:    KindColumnCount,
			Message: fmt.Sprintf("expected %d columns, got %d: %s", len(d.schema.fields), len(tokens), line),
		}
	}

	rec := make(Record, len(d.schema.fields))
	for i, f := range d.schema.fields {
		if f.Nested() {
			if _, ok := rec[f.Parent()]; !ok {
				rec[f.Parent()] = map[string]any{}
			}
		}
		v, err := DecodeValue(tokens[i], f)
		if err != nil {
			return nil, err
		}
		rec.Set(f, v)
	}

	return rec, nil
}

// Unmarshal decodes text with the reference event schema.
func Unmarshal(text string) ([]Record, error) {
	return NewDecoder(EventSchema()).Decode(text)
}
