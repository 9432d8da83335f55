// Package tags implements the list of tags attached to an event.
package tags

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

// T is a list of tag.T - which are lists of string elements with ordering and
// no uniqueness constraint (not a set).
type T []tag.T

// GetFirst gets the first tag in tags that matches the prefix, see
// [tag.T.StartsWith]
func (t T) GetFirst(tagPrefix []string) *tag.T {
	for _, v := range t {
		if v.StartsWith(tagPrefix) {
			return &v
		}
	}
	return nil
}

// GetLast gets the last tag in tags that matches the prefix, see
// [tag.T.StartsWith]
func (t T) GetLast(tagPrefix []string) *tag.T {
	for i := len(t) - 1; i >= 0; i-- {
		v := t[i]
		if v.StartsWith(tagPrefix) {
			return &v
		}
	}
	return nil
}

// GetAll gets all the tags that match the prefix, see [tag.T.StartsWith]
func (t T) GetAll(tagPrefix ...string) T {
	result := make(T, 0, len(t))
	for _, v := range t {
		if v.StartsWith(tagPrefix) {
			result = append(result, v)
		}
	}
	return result
}

// FilterOut removes all tags that match the prefix, see [tag.T.StartsWith]
func (t T) FilterOut(tagPrefix []string) T {
	filtered := make(T, 0, len(t))
	for _, v := range t {
		if !v.StartsWith(tagPrefix) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// AppendUnique appends a tag if it doesn't exist yet, otherwise does nothing.
// the uniqueness comparison is done based only on the first 2 elements of the
// tag.
func (t T) AppendUnique(tag tag.T) T {
	n := len(tag)
	if n > 2 {
		n = 2
	}
	if t.GetFirst(tag[:n]) == nil {
		return append(t, tag)
	}
	return t
}

// Scan parses a string or raw bytes that should be a string and embeds the
// values into the tags variable from which this method is invoked.
func (t T) Scan(src any) (err error) {
	var jtags []byte
	switch v := src.(type) {
	case []byte:
		jtags = v
	case string:
		jtags = []byte(v)
	default:
		return errors.New("couldn't scan tags, it's not a json string")
	}
	err = json.Unmarshal(jtags, &t)
	chk.E(err)
	return
}

// ContainsAny returns true if any of the strings given in `values` matches
// the value (second element) of any tag with the given name.
func (t T) ContainsAny(tagName string, values ...string) bool {
	for _, v := range t {
		if len(v) < 2 {
			continue
		}
		if v.Key() != tagName {
			continue
		}
		for _, candidate := range values {
			if v.Value() == candidate {
				return true
			}
		}
	}
	return false
}

// Clone makes a deep copy of the tags.
func (t T) Clone() (c T) {
	c = make(T, len(t))
	for i := range t {
		c[i] = t[i].Clone()
	}
	return
}

// MarshalTo appends the JSON encoded byte of T as [][]string to dst. String
// escaping is as described in RFC8259.
func (t T) MarshalTo(dst []byte) []byte {
	dst = append(dst, '[')
	for i, tt := range t {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = tt.MarshalTo(dst)
	}
	dst = append(dst, ']')
	return dst
}

// String renders the tags as canonical JSON. The canonical serializer relies
// on this being escaped identically to MarshalTo.
func (t T) String() string {
	return string(t.MarshalTo(nil))
}
