// Package text implements RFC8259 compliant JSON string escaping with a
// pre-calculation stage that eliminates the risk of multiple allocations for
// long inputs, as well as the inverse unescaping and a cursor-based Buffer
// used to scan JSON documents without copying them.
package text

import "unicode/utf8"

// The character constants are used as their names. IDEs with inlays expanding
// the values will demonstrate the equivalence of these with the same decimal
// UTF-8 value, thus the secondary items with their Go rune equivalents.
//
// The human readable forms are given in order to educate more than anything
// else. The same symbols can be used in regular Go double quoted "" strings to
// indicate the same character.
const (
	QuotationMark    = 0x22
	QuotationMarkGo  = '"'
	ReverseSolidus   = 0x5c
	ReverseSolidusGo = '\\'
	Solidus          = 0x2f
	SolidusGo        = '/'
	Backspace        = 0x08
	BackspaceGo      = '\b'
	FormFeed         = 0x0c
	FormFeedGo       = '\f'
	LineFeed         = 0x0a
	LineFeedGo       = '\n'
	CarriageReturn   = 0x0d
	CarriageReturnGo = '\r'
	Tab              = 0x09
	TabGo            = '\t'
	Space            = 0x20
	SpaceGo          = ' '
)

// EscapeJSONStringAndWrap takes an arbitrary string and escapes all control
// characters as per rfc8259 section 7 https://www.rfc-editor.org/rfc/rfc8259:
//
//	The representation of strings is similar to conventions used in the C
//	family of programming languages. A string begins and ends with quotation
//	marks. All Unicode characters may be placed within the quotation marks,
//	except for the characters that MUST be escaped: quotation mark, reverse
//	solidus, and the control characters (U+0000 through U+001F).
//
// The string is assumed to be UTF-8 and only the above escapes are processed;
// high bit values pass through untouched. The string is wrapped in double
// quotes `"` as it is assumed it will be added to a JSON document in a place
// where a string is valid.
//
// The processing proceeds in two passes, first calculating the required
// expansion for the characters in the provided string, and then copying over
// and adding the required escape code expansions as indicated, to ensure that
// for very long strings only one allocation, of precisely the correct amount,
// is made.
//
// Note the iteration through the string must proceed as though the string is
// []byte rather than be interpreted using a `for _, c := range s` which will
// prompt Go to interpret the string as UTF-8 and potentially return a
// different result, this occurs on the series of characters 0-255 at a
// certain point due to UTF-8 encoding rules.
func EscapeJSONStringAndWrap(s string) (escaped []byte) {
	length := len(s) + 2
	for i := range s {
		c := s[i]
		switch {
		// handle the two character escapes `\x`
		case c == QuotationMark,
			c == ReverseSolidus,
			c == Backspace,
			c == Tab,
			c == LineFeed,
			c == FormFeed,
			c == CarriageReturn:
			length++
			// handle the 6 character escapes \uXXXX remaining. values above
			// 0x20 (Space), including the high bit values, are not expanded.
		case c < Space:
			length += 5
		}
	}
	escaped = make([]byte, 0, length)
	return appendString(escaped, s, false)
}

// Unwrap is a dumb function that just slices off the first and last byte,
// which from the EscapeJSONStringAndWrap function is the quotes around it.
//
// This can be unsafe to run as it assumes there is at least two bytes.
func Unwrap(wrapped []byte) (unwrapped []byte) {
	unwrapped = wrapped[1 : len(wrapped)-1]
	return
}

// appendString is the JSON string escaping code from encoding/json but is not
// exported so it is copied here (it should remain valid enough to not need
// updating frequently).
func appendString[Bytes []byte | string](dst []byte, src Bytes,
	escapeHTML bool) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(src); {
		if b := src[i]; b < utf8.RuneSelf {
			if htmlSafeSet[b] || (!escapeHTML && safeSet[b]) {
				i++
				continue
			}
			dst = append(dst, src[start:i]...)
			switch b {
			case '\\', '"':
				dst = append(dst, '\\', b)
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				// This encodes bytes < 0x20 except for \b, \f, \n, \r and \t.
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[b>>4],
					hexDigits[b&0xF])
			}
			i++
			start = i
			continue
		}
		// high bit values pass through as raw UTF-8, matching what
		// EscapeString does.
		i++
	}
	dst = append(dst, src[start:]...)
	dst = append(dst, '"')
	return dst
}
