package toon

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ============================================================
// Round-Trip Validator
// ============================================================

// RoundTripError reports the first divergence between a record collection
// and its encode-then-decode image.
type RoundTripError struct {
	// Index of the first mismatching record, or -1 for a count mismatch.
	Index    int
	Original int // record count in
	Decoded  int // record count out
	Diff     string
}

func (e *RoundTripError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("toon: round-trip count mismatch: original %d != decoded %d", e.Original, e.Decoded)
	}
	return fmt.Sprintf("toon: round-trip record %d mismatch (-original +decoded):\n%s", e.Index, e.Diff)
}

// ValidateRoundTrip encodes records with schema, decodes the result and
// checks that every record comes back structurally equal and in order.
// Originals are compared in their normalized form (see Schema.Normalize).
//
// Encoding and decoding failures are returned as-is; divergence is
// reported as a *RoundTripError.
func ValidateRoundTrip(schema *Schema, records []Record) error {
	text, err := NewEncoder(schema).Encode(records)
	if err != nil {
		return err
	}

	decoded, err := NewDecoder(schema).Decode(text)
	if err != nil {
		return err
	}

	if len(decoded) != len(records) {
		return &RoundTripError{Index: -1, Original: len(records), Decoded: len(decoded)}
	}

	for i, r := range records {
		want, err := schema.Normalize(r)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if diff := cmp.Diff(map[string]any(want), map[string]any(decoded[i]), cmpopts.EquateNaNs()); diff != "" {
			return &RoundTripError{Index: i, Original: len(records), Decoded: len(decoded), Diff: diff}
		}
	}

	return nil
}
