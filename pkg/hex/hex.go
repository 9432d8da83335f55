// Package hex wraps the standard hex codec with the validation and
// constant-time comparison helpers that key and signature handling needs.
// All output is lowercase.
package hex

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Enc encodes b as a lowercase hex string.
func Enc(b []byte) string {
	return hex.EncodeToString(b)
}

// Dec decodes a hex string. Odd length or any non-hex character is an
// error.
func Dec(s string) (b []byte, err error) {
	if b, err = hex.DecodeString(s); err != nil {
		err = fmt.Errorf("invalid hex string '%s': %w", s, err)
	}
	return
}

// DecLen decodes a hex string that must decode to exactly length bytes.
func DecLen(s string, length int) (b []byte, err error) {
	if len(s) != length*2 {
		return nil, fmt.Errorf(
			"invalid hex length: expect %d chars for %d bytes, got %d",
			length*2, length, len(s))
	}
	return Dec(s)
}

// DecInto decodes a hex string into dst, requiring an exact fit.
func DecInto(dst []byte, s string) (err error) {
	if len(s) != len(dst)*2 {
		return fmt.Errorf(
			"invalid hex length: expect %d chars for %d bytes, got %d",
			len(dst)*2, len(dst), len(s))
	}
	if _, err = hex.Decode(dst, []byte(s)); err != nil {
		err = fmt.Errorf("invalid hex string '%s': %w", s, err)
	}
	return
}

// Valid reports whether s is well-formed hex of even length.
func Valid(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' ||
			c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// EqConst compares two equal-length byte slices in constant time. Slices of
// differing length compare unequal immediately.
func EqConst(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
