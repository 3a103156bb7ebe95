package toon

import "strings"

// ============================================================
// Row Tokenizer
// ============================================================
//
// SplitRow is a single left-to-right scan with two states and a bracket
// depth counter:
//
//   stateNormal   separator at depth 0 ends the token; '[' / ']' adjust depth
//   stateInQuote  everything is literal; "" is an escaped quote
//
// Quote characters are kept in the raw token. DecodeValue strips them.

type scanState uint8

const (
	stateNormal scanState = iota
	stateInQuote
)

// SplitRow splits one data row into raw tokens. It never fails; callers
// check the token count against their schema.
func SplitRow(line string) []string {
	var (
		tokens []string
		cur    strings.Builder
		state  = stateNormal
		depth  = 0
	)

	for i := 0; i < len(line); i++ {
		c := line[i]

		switch state {
		case stateInQuote:
			if c == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					cur.WriteString(`""`)
					i++
					continue
				}
				state = stateNormal
			}
			cur.WriteByte(c)

		case stateNormal:
			switch {
			case c == '"':
				state = stateInQuote
				cur.WriteByte(c)
			case c == '[':
				depth++
				cur.WriteByte(c)
			case c == ']':
				depth--
				cur.WriteByte(c)
			case c == Separator && depth == 0:
				tokens = append(tokens, cur.String())
				cur.Reset()
			default:
				cur.WriteByte(c)
			}
		}
	}

	return append(tokens, cur.String())
}
