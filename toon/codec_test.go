package toon

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSmallSchema() *Schema {
	return MustSchema("events",
		Str("id"),
		Int("severity"),
		StringList("metadata.tags"),
		Str("message"),
	)
}

func makeEvent(i int) Record {
	return Record{
		"id":        "evt-" + string(rune('a'+i)),
		"timestamp": "2025-01-01T00:00:00+00:00",
		"service":   "auth-service",
		"env":       "prod",
		"type":      "auth",
		"status":    "failed",
		"severity":  int64(i%5 + 1),
		"source":    "us-east-1/instance-1234",
		"metadata": map[string]any{
			"request_id":  "req-0000abcd",
			"user_id":     "usr-1001",
			"region":      "us-east-1",
			"retry_count": int64(i),
			"latency_ms":  123.45 + float64(i),
			"tags":        []string{"auth", "critical"},
		},
		"message": "Operation failed for prod environment.",
	}
}

func TestEncodeSingleRecord(t *testing.T) {
	s := makeSmallSchema()
	rec := Record{
		"id":       "a1",
		"severity": 4,
		"metadata": map[string]any{"tags": []string{"x", "y"}},
		"message":  "ok, fine",
	}

	text, err := NewEncoder(s).Encode([]Record{rec})
	require.NoError(t, err)

	want := "events[1]:\n{id,severity,metadata.tags,message}\na1,4,[x,y],\"ok, fine\""
	assert.Equal(t, want, text)

	got, err := NewDecoder(s).Decode(text)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, Record{
		"id":       "a1",
		"severity": int64(4),
		"metadata": map[string]any{"tags": []string{"x", "y"}},
		"message":  "ok, fine",
	}, got[0])
}

func TestEncodeEmptyCollection(t *testing.T) {
	text, err := NewEncoder(makeSmallSchema()).Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "events[0]:\n{id,severity,metadata.tags,message}", text)

	got, err := NewDecoder(makeSmallSchema()).Decode(text)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncodeMissingValues(t *testing.T) {
	s := makeSmallSchema()
	text, err := NewEncoder(s).Encode([]Record{{"id": "x"}})
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	assert.Equal(t, "x,,[],", lines[2])
}

func TestEncodeRejectsUnsafeListElement(t *testing.T) {
	s := makeSmallSchema()
	recs := []Record{
		{"id": "ok", "severity": 1, "metadata": map[string]any{"tags": []string{"a"}}, "message": "m"},
		{"id": "bad", "severity": 1, "metadata": map[string]any{"tags": []string{"tag1", "tag,2"}}, "message": "m"},
	}

	_, err := NewEncoder(s).Encode(recs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsafeArrayElement)

	var ee *EncodeError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 1, ee.Record)
	assert.Equal(t, "metadata.tags", ee.Field)
}

func TestEncodeConvertsToFieldKind(t *testing.T) {
	s := MustSchema("events", Str("id"), Int("severity"), Float("latency"), StringList("tags"))
	rec := Record{"id": "a", "severity": float64(3), "latency": 10, "tags": []any{"x", "y"}}

	text, err := NewEncoder(s).Encode([]Record{rec})
	require.NoError(t, err)
	assert.Equal(t, "a,3,10.0,[x,y]", strings.Split(text, "\n")[2])

	got, err := NewDecoder(s).Decode(text)
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "a", "severity": int64(3), "latency": 10.0, "tags": []string{"x", "y"}}, got[0])
}

func TestEncodeRejectsValueOfWrongKind(t *testing.T) {
	s := MustSchema("events", Str("id"), Int("severity"))
	_, err := NewEncoder(s).Encode([]Record{{"id": "a", "severity": 2.5}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	var ee *EncodeError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 0, ee.Record)
	assert.Equal(t, "severity", ee.Field)
}

func TestDecodeBlankLinesAndCRLF(t *testing.T) {
	text := "\r\n  events[1]:\r\n\r\n{id,severity,metadata.tags,message}\r\n  a1,4,[x,y],\"ok, fine\"  \r\n\n"
	got, err := NewDecoder(makeSmallSchema()).Decode(text)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok, fine", got[0]["message"])
}

func TestDecodeEmptyInput(t *testing.T) {
	got, err := NewDecoder(makeSmallSchema()).Decode(" \n\n ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodeErrors(t *testing.T) {
	const schemaLine = "{id,severity,metadata.tags,message}"

	tests := []struct {
		name     string
		input    string
		kind     ErrorKind
		sentinel error
		line     int
	}{
		{"wrong collection", "logs[1]:\n" + schemaLine + "\na,1,[],m", KindHeader, ErrMalformedHeader, 1},
		{"missing colon", "events[1]\n" + schemaLine + "\na,1,[],m", KindHeader, ErrMalformedHeader, 1},
		{"non numeric count", "events[x]:\n" + schemaLine, KindHeader, ErrMalformedHeader, 1},
		{"missing schema", "events[0]:", KindSchema, ErrSchemaMismatch, 2},
		{"schema without braces", "events[0]:\nid,severity,metadata.tags,message", KindSchema, ErrSchemaMismatch, 2},
		{"schema reordered", "events[0]:\n{severity,id,metadata.tags,message}", KindSchema, ErrSchemaMismatch, 2},
		{"schema missing field", "events[0]:\n{id,severity,message}", KindSchema, ErrSchemaMismatch, 2},
		{"schema extra field", "events[0]:\n{id,severity,metadata.tags,message,extra}", KindSchema, ErrSchemaMismatch, 2},
		{"too few columns", "events[1]:\n" + schemaLine + "\na,1,[]", KindColumnCount, ErrColumnCount, 3},
		{"too many columns", "events[1]:\n" + schemaLine + "\na,1,[],m,extra", KindColumnCount, ErrColumnCount, 3},
		{"bad int", "events[2]:\n" + schemaLine + "\na,1,[],m\nb,high,[],m", KindTypeCoercion, ErrTypeCoercion, 4},
		{"bad list", "events[1]:\n" + schemaLine + "\na,1,x,m", KindTypeCoercion, ErrTypeCoercion, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDecoder(makeSmallSchema()).Decode(tt.input)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(err))

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.line, de.Line)
		})
	}
}

func TestDecodeSchemaMismatchReportsBothLists(t *testing.T) {
	_, err := NewDecoder(makeSmallSchema()).Decode("events[0]:\n{severity,id,metadata.tags,message}")

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"id", "severity", "metadata.tags", "message"}, de.Expected)
	assert.Equal(t, []string{"severity", "id", "metadata.tags", "message"}, de.Got)
	assert.Contains(t, err.Error(), "expected: {id,severity,metadata.tags,message}")
	assert.Contains(t, err.Error(), "got:      {severity,id,metadata.tags,message}")
}

func TestDecodeQuotedSeparatorNotMiscounted(t *testing.T) {
	s := MustSchema("events", Str("a"), Str("b"), StringList("c"), Str("d"))
	got, err := NewDecoder(s).Decode("events[1]:\n{a,b,c,d}\na,\"b,c\",[d,e],f")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Record{"a": "a", "b": "b,c", "c": []string{"d", "e"}, "d": "f"}, got[0])
}

func TestDecodeRowCountLenient(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	d := NewDecoderWithOptions(makeSmallSchema(), DecodeOptions{Logger: logger})
	doc, err := d.DecodeDocument("events[5]:\n{id,severity,metadata.tags,message}\na,1,[],m")
	require.NoError(t, err)

	assert.Equal(t, 5, doc.Declared)
	assert.Len(t, doc.Records, 1)
	assert.Contains(t, logs.String(), "declared=5")
	assert.Contains(t, logs.String(), "decoded=1")
}

func TestDecodeRowCountStrict(t *testing.T) {
	d := NewDecoderWithOptions(makeSmallSchema(), DecodeOptions{StrictCount: true})
	_, err := d.Decode("events[5]:\n{id,severity,metadata.tags,message}\na,1,[],m")
	assert.ErrorIs(t, err, ErrRowCount)
	assert.Equal(t, KindRowCount, KindOf(err))

	_, err = d.Decode("events[1]:\n{id,severity,metadata.tags,message}\na,1,[],m")
	assert.NoError(t, err)
}

func TestDecodeAttachesNestedMapPerRow(t *testing.T) {
	got, err := NewDecoder(makeSmallSchema()).Decode(
		"events[2]:\n{id,severity,metadata.tags,message}\na,1,[x],m\nb,2,[y],n")
	require.NoError(t, err)
	require.Len(t, got, 2)

	m0 := got[0]["metadata"].(map[string]any)
	m1 := got[1]["metadata"].(map[string]any)
	m0["tags"] = []string{"changed"}
	assert.Equal(t, []string{"y"}, m1["tags"])
}

func TestEventSchemaRoundTrip(t *testing.T) {
	var recs []Record
	for i := 0; i < 10; i++ {
		recs = append(recs, makeEvent(i))
	}

	text, err := Marshal(recs)
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	assert.Equal(t, "events[10]:", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "{id,timestamp,service"))
	assert.Len(t, lines, 12)

	got, err := Unmarshal(text)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestEncoderDecoderAreIndependentOfOtherSchemas(t *testing.T) {
	a := MustSchema("a", Str("x"))
	b := MustSchema("b", Str("y"), Str("z"))

	ta, err := NewEncoder(a).Encode([]Record{{"x": "1"}})
	require.NoError(t, err)
	tb, err := NewEncoder(b).Encode([]Record{{"y": "1", "z": "2"}})
	require.NoError(t, err)

	_, err = NewDecoder(b).Decode(ta)
	assert.ErrorIs(t, err, ErrMalformedHeader)

	got, err := NewDecoder(b).Decode(tb)
	require.NoError(t, err)
	assert.Equal(t, []Record{{"y": "1", "z": "2"}}, got)
}
