package toon

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// Value Codec
// ============================================================

// EncodeValue renders one field value as a row token.
//
// String lists become [a,b,c]. Everything else is stringified and quoted
// when the text contains a comma, a space or a double quote. A nil value
// encodes as the empty token.
func EncodeValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case []string:
		return encodeList(val)
	case []any:
		elems := make([]string, len(val))
		for i, e := range val {
			elems[i] = fmt.Sprint(e)
		}
		return encodeList(elems)
	}

	s := scalarText(v)
	if strings.ContainsAny(s, "\r\n") {
		return "", ErrUnsafeValue
	}
	if needsQuote(s) {
		return quoteToken(s), nil
	}
	if bracketDepth(s) != 0 {
		return "", fmt.Errorf("%w: %q", ErrUnbalancedBrackets, s)
	}
	return s, nil
}

// bracketDepth returns the net '[' minus ']' count of an unquoted token.
// SplitRow only splits at depth 0, so a non-zero result would swallow the
// following separators.
func bracketDepth(s string) int {
	return strings.Count(s, "[") - strings.Count(s, "]")
}

// encodeList writes [a,b,c]. Elements are not quoted, so any element that
// would change how SplitRow or DecodeValue read the token is rejected: the
// separator, brackets, a double quote, and a lone empty element (which
// would encode as [] and decode as an empty list).
func encodeList(elems []string) (string, error) {
	if len(elems) == 1 && elems[0] == "" {
		return "", fmt.Errorf("%w: single empty element", ErrUnsafeArrayElement)
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, e := range elems {
		if strings.ContainsAny(e, ",[]\"") {
			return "", fmt.Errorf("%w: %q", ErrUnsafeArrayElement, e)
		}
		if strings.ContainsAny(e, "\r\n") {
			return "", ErrUnsafeValue
		}
		if i > 0 {
			b.WriteByte(Separator)
		}
		b.WriteString(e)
	}
	b.WriteByte(']')
	return b.String(), nil
}

func scalarText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return formatFloat(val, 64)
	case float32:
		return formatFloat(float64(val), 32)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat writes the shortest decimal form, always keeping a fractional
// part so float columns stay recognisable: 10 -> "10.0", 2500.75 -> "2500.75".
func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if strings.ContainsAny(s, ".NI") {
		return s
	}
	return s + ".0"
}

func needsQuote(s string) bool {
	return strings.ContainsAny(s, `, "`)
}

func quoteToken(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	b.WriteByte('"')
	return b.String()
}

// unquoteToken strips surrounding quotes and collapses doubled quotes.
// Tokens that are not quote-wrapped are returned unchanged.
func unquoteToken(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

// DecodeValue converts a raw row token into the field's Go type.
// A failed numeric or list conversion returns a *DecodeError of kind
// KindTypeCoercion.
func DecodeValue(token string, f Field) (any, error) {
	val := unquoteToken(strings.TrimSpace(token))

	switch f.Kind {
	case KindStringList:
		if len(val) < 2 || val[0] != '[' || val[len(val)-1] != ']' {
			return nil, &DecodeError{
				Kind:    KindTypeCoercion,
				Field:   f.Name,
				Message: fmt.Sprintf("list must be bracketed, got %q", val),
			}
		}
		content := val[1 : len(val)-1]
		if content == "" {
			return []string{}, nil
		}
		return strings.Split(content, string(Separator)), nil

	case KindInt:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, &DecodeError{Kind: KindTypeCoercion, Field: f.Name, Err: err}
		}
		return n, nil

	case KindFloat:
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, &DecodeError{Kind: KindTypeCoercion, Field: f.Name, Err: err}
		}
		return n, nil

	default:
		return val, nil
	}
}
