// Package streamjson decodes the model's JSON payload while it is still
// arriving. The backend replies with an object of the shape
// {"response": string, "suggested_actions": [...]}; ExtractResponse pulls the
// best currently-decodable value of "response" out of an arbitrary prefix of
// that object, and ParseFinal performs the strict parse once the stream ends.
package streamjson

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const responseKeyMarker = `"response"`

// scanner states for the value state machine.
const (
	stateOutside = iota
	stateInValue
	stateEscaped
)

// ExtractResponse returns the longest decoded run of the "response" value
// available in s, which may be empty, truncated mid-escape, or not JSON at
// all. It never fails: if the key marker has not appeared yet the result is
// the empty string.
func ExtractResponse(s string) string {
	idx := strings.Index(s, responseKeyMarker)
	if idx < 0 {
		return ""
	}
	rest := s[idx+len(responseKeyMarker):]

	// Skip whitespace, the colon, and more whitespace up to the opening quote.
	pos := 0
	seenColon := false
	for pos < len(rest) {
		c := rest[pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			pos++
			continue
		}
		if c == ':' && !seenColon {
			seenColon = true
			pos++
			continue
		}
		break
	}
	if !seenColon || pos >= len(rest) || rest[pos] != '"' {
		return ""
	}
	pos++ // opening quote

	var out strings.Builder
	state := stateInValue
	for pos < len(rest) {
		switch state {
		case stateInValue:
			c := rest[pos]
			switch c {
			case '"':
				// Unescaped closing quote: the value is complete.
				return out.String()
			case '\\':
				state = stateEscaped
				pos++
			default:
				r, size := utf8.DecodeRuneInString(rest[pos:])
				out.WriteRune(r)
				pos += size
			}
		case stateEscaped:
			consumed, ok := decodeEscape(rest[pos:], &out)
			if !ok {
				// Truncated escape sequence: hold it back rather than
				// emitting garbage.
				return out.String()
			}
			pos += consumed
			state = stateInValue
		}
	}
	return out.String()
}

// decodeEscape resolves the escape body starting at s (the backslash has
// already been consumed). Returns the number of bytes consumed and false when
// the sequence is incomplete.
func decodeEscape(s string, out *strings.Builder) (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	switch s[0] {
	case 'n':
		out.WriteByte('\n')
		return 1, true
	case 't':
		out.WriteByte('\t')
		return 1, true
	case 'r':
		out.WriteByte('\r')
		return 1, true
	case 'b':
		out.WriteByte('\b')
		return 1, true
	case 'f':
		out.WriteByte('\f')
		return 1, true
	case '"':
		out.WriteByte('"')
		return 1, true
	case '\\':
		out.WriteByte('\\')
		return 1, true
	case '/':
		out.WriteByte('/')
		return 1, true
	case 'u':
		r, consumed, ok := decodeUnicodeEscape(s)
		if !ok {
			return 0, false
		}
		out.WriteRune(r)
		return consumed, true
	default:
		// Unknown escape: JSON would reject it, but the extractor is
		// best-effort and keeps the literal character.
		out.WriteByte(s[0])
		return 1, true
	}
}

// decodeUnicodeEscape parses "uXXXX" (optionally followed by a low surrogate
// "\uXXXX") at the start of s.
func decodeUnicodeEscape(s string) (rune, int, bool) {
	if len(s) < 5 {
		return 0, 0, false
	}
	hi, ok := parseHex4(s[1:5])
	if !ok {
		return 0, 0, false
	}
	r := rune(hi)
	if !utf16.IsSurrogate(r) {
		return r, 5, true
	}
	// High surrogate: need a full "\uXXXX" low half to decode; hold back
	// until it arrives.
	if len(s) < 11 || s[5] != '\\' || s[6] != 'u' {
		return 0, 0, false
	}
	lo, ok := parseHex4(s[7:11])
	if !ok {
		return 0, 0, false
	}
	combined := utf16.DecodeRune(r, rune(lo))
	if combined == utf8.RuneError {
		return utf8.RuneError, 11, true
	}
	return combined, 11, true
}

func parseHex4(s string) (uint32, bool) {
	var v uint32
	for i := 0; i < 4; i++ {
		c := s[i]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}
