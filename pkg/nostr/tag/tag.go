// Package tag implements the ordered list of strings that is the element
// type of an event's tags.
package tag

import (
	"strings"

	"github.com/chebizarro/nostrc-go/pkg/nostr/normalize"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
)

// The tag position meanings so they are clear when reading.
const (
	Key = iota
	Value
	Relay
)

// Marker strings for e (reference) tags.
const (
	MarkerReply   = "reply"
	MarkerRoot    = "root"
	MarkerMention = "mention"
)

// T is a list of strings with a literal ordering.
//
// Not a set, there can be repeating elements.
type T []string

// StartsWith checks a tag has the same initial set of elements.
//
// The last element is treated specially in that it is considered to match if
// the candidate has the same initial substring as its corresponding element.
func (t T) StartsWith(prefix []string) bool {
	prefixLen := len(prefix)

	if prefixLen > len(t) {
		return false
	}
	// check initial elements for equality
	for i := 0; i < prefixLen-1; i++ {
		if prefix[i] != t[i] {
			return false
		}
	}
	// check last element just for a prefix
	return strings.HasPrefix(t[prefixLen-1], prefix[prefixLen-1])
}

// Key returns the first element of the tag.
func (t T) Key() string {
	if len(t) > Key {
		return t[Key]
	}
	return ""
}

// Value returns the second element of the tag.
func (t T) Value() string {
	if len(t) > Value {
		return t[Value]
	}
	return ""
}

// Relay returns the third element of the tag, normalized, for the e and p
// tags that carry a relay hint there.
func (t T) Relay() string {
	if (t.Key() == "e" || t.Key() == "p") && len(t) > Relay {
		return normalize.URL(t[Relay])
	}
	return ""
}

// Clone makes a new tag.T with the same members. Nil stays nil.
func (t T) Clone() (c T) {
	if t == nil {
		return
	}
	c = make(T, len(t))
	copy(c, t)
	return
}

// Contains reports whether the tag has an element equal to s.
func (t T) Contains(s string) bool {
	for i := range t {
		if t[i] == s {
			return true
		}
	}
	return false
}

// ContainsPrefix reports whether any element of the tag is a prefix of s.
// Filter id and author entries match event fields this way.
func (t T) ContainsPrefix(s string) bool {
	for i := range t {
		if strings.HasPrefix(s, t[i]) {
			return true
		}
	}
	return false
}

// Equals checks the tag matches element for element.
func (t T) Equals(t1 T) bool {
	if len(t) != len(t1) {
		return false
	}
	for i := range t {
		if t[i] != t1[i] {
			return false
		}
	}
	return true
}

// MarshalTo appends the JSON form of T to dst. String escaping is as in
// RFC8259 so the output is part of the canonical form.
func (t T) MarshalTo(dst []byte) []byte {
	dst = append(dst, '[')
	for i, s := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, text.EscapeJSONStringAndWrap(s)...)
	}
	dst = append(dst, ']')
	return dst
}

// String renders the tag as canonical JSON. The canonical serializer relies
// on this being escaped identically to MarshalTo.
func (t T) String() string {
	return string(t.MarshalTo(nil))
}
