package filter

import (
	"fmt"
	"sort"

	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kinds"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
	"github.com/chebizarro/nostrc-go/pkg/wire/object"
)

// T is a query where one or all elements can be filled in.
//
// Most of it is normal stuff but the Tags are a special case because the Go
// encoding/json will not do what the protocol requires, which is to unwrap
// the tag map into `#<letter>` keys promoted to the same level as the other
// fields. Because we have a native key/value type designed for ordered
// object JSON serialization we just give it special treatment in ToObject,
// and UnmarshalJSON walks the raw object keys directly.
//
// IDs and Authors entries are prefixes: an entry matches an event when it is
// a leading substring of the event id or pubkey respectively.
//
// LimitZero records that a literal `"limit":0` was present, distinct from an
// absent limit. Such a filter matches nothing; the flag itself has no wire
// field beyond the zero limit.
type T struct {
	IDs       tag.T         `json:"ids,omitempty"`
	Kinds     kinds.T       `json:"kinds,omitempty"`
	Authors   tag.T         `json:"authors,omitempty"`
	Tags      TagMap        `json:"-,omitempty"`
	Since     *timestamp.Tp `json:"since,omitempty"`
	Until     *timestamp.Tp `json:"until,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Search    string        `json:"search,omitempty"`
	LimitZero bool          `json:"-"`
}

// TagMap holds the `#<letter>` constraints of a filter. Keys are stored with
// their `#` prefix as they appear on the wire.
type TagMap map[string]tag.T

func (t TagMap) Clone() (t1 TagMap) {
	if t == nil {
		return
	}
	t1 = make(TagMap)
	for i := range t {
		t1[i] = t[i].Clone()
	}
	return
}

func (f *T) ToObject() (o object.T) {
	o = object.T{
		{Key: "ids,omitempty", Value: f.IDs},
		{Key: "kinds,omitempty", Value: f.Kinds.ToArray()},
		{Key: "authors,omitempty", Value: f.Authors},
	}
	// tag constraints are not grouped under a top level key but unfolded
	// into the object, promoted to the same level as their enclosing map.
	// Due to the nondeterministic map iteration of Go, we make a temp slice
	// and sort it so output is stable.
	var tmp object.T
	for i := range f.Tags {
		key := i
		if len(i) == 1 {
			v := i[0]
			if v >= 'a' && v <= 'z' || v >= 'A' && v <= 'Z' {
				key = "#" + i
			}
		}
		tmp = append(tmp, object.KV{Key: key, Value: f.Tags[i]})
	}
	sort.Sort(tmp)
	o = append(o, tmp...)
	o = append(o, object.T{
		{Key: "since,omitempty", Value: f.Since},
		{Key: "until,omitempty", Value: f.Until},
	}...)
	if f.Limit > 0 || f.LimitZero {
		o = append(o, object.KV{Key: "limit", Value: f.Limit})
	}
	if f.Search != "" {
		o = append(o, object.NewKV("search,omitempty", f.Search))
	}
	return
}

func (f *T) MarshalJSON() (b []byte, err error) {
	return f.ToObject().Bytes(), nil
}

func (f *T) String() string { return f.ToObject().String() }

// Matches is the coordinate-wise filter predicate: every populated
// constraint must pass for the event to match. IDs and Authors entries
// match by prefix, tag constraints require the value as the second element
// of a row named by the key, since/until are inclusive bounds, and a
// limit-zero filter matches nothing.
func (f *T) Matches(ev *event.T) bool {
	if ev == nil {
		return false
	}
	if f.LimitZero {
		return false
	}
	if len(f.IDs) > 0 && !f.IDs.ContainsPrefix(ev.ID.String()) {
		return false
	}
	if len(f.Kinds) > 0 && !f.Kinds.Contains(ev.Kind) {
		return false
	}
	if len(f.Authors) > 0 && !f.Authors.ContainsPrefix(ev.PubKey) {
		return false
	}
	for name, values := range f.Tags {
		if len(values) > 0 &&
			!ev.Tags.ContainsAny(tagKeyName(name), values...) {
			return false
		}
	}
	if f.Since != nil && ev.CreatedAt < f.Since.T() {
		return false
	}
	if f.Until != nil && ev.CreatedAt > f.Until.T() {
		return false
	}
	return true
}

// tagKeyName strips the wire `#` from a constraint key so it compares
// against the first element of event tag rows.
func tagKeyName(k string) string {
	if len(k) > 1 && k[0] == '#' {
		return k[1:]
	}
	return k
}

func arePointerValuesEqual[V comparable](a *V, b *V) bool {
	if a == nil && b == nil {
		return true
	}
	if a != nil && b != nil {
		return *a == *b
	}
	return false
}

// FilterEqual compares the matching semantics of two filters. Limit is
// deliberately excluded: two filters that select the same events are equal
// regardless of how many the caller wants.
func FilterEqual(a, b *T) bool {
	switch {
	case !a.Kinds.Equals(b.Kinds),
		!a.IDs.Equals(b.IDs),
		!a.Authors.Equals(b.Authors),
		len(a.Tags) != len(b.Tags),
		!arePointerValuesEqual(a.Since, b.Since),
		!arePointerValuesEqual(a.Until, b.Until),
		a.Search != b.Search,
		a.LimitZero != b.LimitZero:

		return false
	}
	for k, av := range a.Tags {
		if bv, ok := b.Tags[k]; !ok {
			return false
		} else if !av.Equals(bv) {
			return false
		}
	}
	return true
}

func (f *T) Clone() (clone *T) {
	return &T{
		IDs:       f.IDs.Clone(),
		Authors:   f.Authors.Clone(),
		Kinds:     f.Kinds.Clone(),
		Limit:     f.Limit,
		LimitZero: f.LimitZero,
		Search:    f.Search,
		Tags:      f.Tags.Clone(),
		Since:     f.Since.Clone(),
		Until:     f.Until.Clone(),
	}
}

func errType(key string) error {
	return fmt.Errorf("filter %s has wrong type", key)
}
