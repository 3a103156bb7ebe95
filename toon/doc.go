// Package toon implements TOON, a compact line-oriented codec for
// collections of fixed-shape records.
//
// TOON is designed to be:
//   - Cheaper to send to an LLM than JSON (one schema line, no repeated keys)
//   - Exactly reconstructible (typed fields, strict schema check)
//   - Easy to emit by hand or by a model
//
// # Document Layout
//
// A document has a header line, a schema line and one data row per record:
//
//	events[2]:
//	{id,severity,metadata.tags,message}
//	a1,4,[x,y],"ok, fine"
//	b2,1,[],done
//
// The header declares the collection name and record count. The schema line
// lists the field identifiers in order; a dotted identifier such as
// metadata.tags addresses a key one level down in the record.
//
// # Values
//
// Scalars are written as-is unless their text contains a comma, a space or a
// double quote, in which case they are wrapped in quotes and inner quotes are
// doubled (CSV style). String lists are written as [a,b,c] with no per-element
// quoting, so list elements may not contain commas, brackets or double
// quotes, and a list may not consist of a single empty element.
//
// # Schema
//
// Both sides of the codec are bound to a *Schema. The decoder rejects any
// document whose schema line differs from its configured field list, and
// any row that does not yield exactly one token per field.
//
//	s := toon.EventSchema()
//	text, err := toon.NewEncoder(s).Encode(records)
//	...
//	back, err := toon.NewDecoder(s).Decode(text)
package toon
