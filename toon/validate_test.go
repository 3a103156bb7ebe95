package toon

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoundTrip(t *testing.T) {
	var recs []Record
	for i := 0; i < 25; i++ {
		recs = append(recs, makeEvent(i))
	}
	recs[3]["message"] = `Testing "quotes" and, commas, and [brackets]`
	recs[4]["metadata"].(map[string]any)["tags"] = []string{}

	assert.NoError(t, ValidateRoundTrip(EventSchema(), recs))
}

func TestValidateRoundTripNormalizesCallerTypes(t *testing.T) {
	rec := Record{
		"id":       "a1",
		"severity": 4,
		"metadata": map[string]any{"tags": []any{"x", "y"}},
		"message":  "ok, fine",
	}
	assert.NoError(t, ValidateRoundTrip(makeSmallSchema(), []Record{rec}))
}

func TestValidateRoundTripEmpty(t *testing.T) {
	assert.NoError(t, ValidateRoundTrip(EventSchema(), nil))
}

func TestValidateRoundTripReportsMismatch(t *testing.T) {
	// Leading/trailing tabs are not a quoting trigger and are trimmed on
	// decode, so this string cannot survive the trip.
	recs := []Record{
		{"id": "a", "severity": 1, "message": "fine"},
		{"id": "b", "severity": 2, "message": "\ttabbed"},
	}

	err := ValidateRoundTrip(makeSmallSchema(), recs)
	require.Error(t, err)

	var rte *RoundTripError
	require.True(t, errors.As(err, &rte))
	assert.Equal(t, 1, rte.Index)
	assert.Contains(t, rte.Diff, "tabbed")
	assert.Contains(t, err.Error(), "record 1 mismatch")
}

func TestValidateRoundTripSurfacesEncodeError(t *testing.T) {
	rec := Record{"id": "a", "severity": 1, "metadata": map[string]any{"tags": []string{"tag,2"}}}
	err := ValidateRoundTrip(makeSmallSchema(), []Record{rec})
	assert.ErrorIs(t, err, ErrUnsafeArrayElement)
}

func TestValidateRoundTripRejectsQuoteInListElement(t *testing.T) {
	s := MustSchema("events", Str("id"), StringList("tags"), Str("message"))
	rec := Record{"id": "a", "tags": []string{`say"hi`}, "message": "m"}

	err := ValidateRoundTrip(s, []Record{rec})
	assert.ErrorIs(t, err, ErrUnsafeArrayElement)
	assert.Zero(t, KindOf(err))
}

func TestValidateRoundTripRejectsSingleEmptyListElement(t *testing.T) {
	rec := Record{"id": "a", "severity": 1, "metadata": map[string]any{"tags": []string{""}}, "message": "m"}
	err := ValidateRoundTrip(makeSmallSchema(), []Record{rec})
	assert.ErrorIs(t, err, ErrUnsafeArrayElement)

	rec["metadata"] = map[string]any{"tags": []string{"", ""}}
	assert.NoError(t, ValidateRoundTrip(makeSmallSchema(), []Record{rec}))
}

func TestValidateRoundTripWholeFloatInIntField(t *testing.T) {
	s := MustSchema("events", Str("id"), Int("severity"))
	assert.NoError(t, ValidateRoundTrip(s, []Record{{"id": "a", "severity": float64(3)}}))
}

func TestValidateRoundTripNaN(t *testing.T) {
	s := MustSchema("points", Str("id"), Float("v"))
	assert.NoError(t, ValidateRoundTrip(s, []Record{{"id": "p", "v": math.NaN()}}))
}

func TestRoundTripErrorCountMessage(t *testing.T) {
	err := &RoundTripError{Index: -1, Original: 3, Decoded: 2}
	assert.Equal(t, "toon: round-trip count mismatch: original 3 != decoded 2", err.Error())
}
