package toon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSchema(t *testing.T) {
	s := EventSchema()
	assert.Equal(t, "events", s.Collection())
	assert.Len(t, s.fields, 15)
	assert.Equal(t, "{id,timestamp,service,env,type,status,severity,source,"+
		"metadata.request_id,metadata.user_id,metadata.region,metadata.retry_count,"+
		"metadata.latency_ms,metadata.tags,message}", s.String())

	f := s.fields[12]
	assert.Equal(t, "metadata.latency_ms", f.Name)
	assert.Equal(t, KindFloat, f.Kind)
	assert.Equal(t, "metadata", f.Parent())
	assert.Equal(t, "latency_ms", f.Child())

	f = s.fields[6]
	assert.Equal(t, "severity", f.Name)
	assert.Equal(t, KindInt, f.Kind)
	assert.False(t, f.Nested())
	assert.Equal(t, "severity", f.Parent())
	assert.Equal(t, "", f.Child())
}

func TestSchemaNamesCopy(t *testing.T) {
	s := EventSchema()
	names := s.Names()
	names[0] = "mutated"

	assert.Equal(t, "id", s.Names()[0])
}

func TestNewSchemaRejects(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		fields     []Field
	}{
		{"empty collection", "", []Field{Str("a")}},
		{"bad collection", "ev ents", []Field{Str("a")}},
		{"no fields", "events", nil},
		{"empty name", "events", []Field{Str("")}},
		{"duplicate", "events", []Field{Str("a"), Int("a")}},
		{"comma in name", "events", []Field{Str("a,b")}},
		{"brace in name", "events", []Field{Str("a}")}},
		{"two levels", "events", []Field{Str("a.b.c")}},
		{"empty segment", "events", []Field{Str("a.")}},
		{"flat and parent", "events", []Field{Str("meta"), Str("meta.x")}},
		{"unknown kind", "events", []Field{{Name: "a", Kind: Kind(9)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.collection, tt.fields...)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestMustSchemaPanics(t *testing.T) {
	assert.Panics(t, func() { MustSchema("events") })
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "str", KindString.String())
	assert.Equal(t, "list<str>", KindStringList.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
	assert.Equal(t, "column-count", KindColumnCount.String())
}

func TestNormalize(t *testing.T) {
	s := makeSmallSchema()
	got, err := s.Normalize(Record{
		"id":       "a",
		"severity": uint8(3),
		"extra":    "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, Record{
		"id":       "a",
		"severity": int64(3),
		"metadata": map[string]any{"tags": []string{}},
	}, got)

	_, err = s.Normalize(Record{"severity": "three"})
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = s.Normalize(Record{"metadata": map[string]any{"tags": []any{1}}})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestRecordValueAndSet(t *testing.T) {
	r := Record{}
	f := Float("metadata.latency_ms")
	_, ok := r.Value(f)
	assert.False(t, ok)

	r.Set(f, 1.5)
	v, ok := r.Value(f)
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	r.Set(Str("metadata.region"), "eu")
	assert.Equal(t, map[string]any{"latency_ms": 1.5, "region": "eu"}, r["metadata"])
}
