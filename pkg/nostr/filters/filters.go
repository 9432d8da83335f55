// Package filters groups a set of filters as sent in a REQ envelope. An
// event matches the group when it matches any member.
package filters

import (
	"encoding/json"

	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/wire/array"
)

type T []*filter.T

func (eff T) ToArray() (a array.T) {
	for i := range eff {
		a = append(a, eff[i].ToObject())
	}
	return
}

func (eff T) String() string { return eff.ToArray().String() }

func (eff T) Match(ev *event.T) bool {
	for _, f := range eff {
		if f.Matches(ev) {
			return true
		}
	}
	return false
}

func (eff T) Clone() (c T) {
	c = make(T, len(eff))
	for i := range eff {
		c[i] = eff[i].Clone()
	}
	return
}

// UnmarshalJSON reads a JSON array of filter objects.
func (eff *T) UnmarshalJSON(b []byte) (err error) {
	var raw []json.RawMessage
	if err = json.Unmarshal(b, &raw); err != nil {
		return
	}
	*eff = make(T, 0, len(raw))
	for _, r := range raw {
		f := &filter.T{}
		if err = f.UnmarshalJSON(r); err != nil {
			return
		}
		*eff = append(*eff, f)
	}
	return
}
