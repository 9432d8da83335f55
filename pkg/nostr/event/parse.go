package event

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/chebizarro/nostrc-go/pkg/nostr/eventid"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tags"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
)

// UnmarshalJSON decodes an event from its wire object form. Unknown fields
// are ignored and field order is irrelevant, but any present field with the
// wrong primitive type fails the parse, as does a tag row that is empty or
// contains a non-string element.
func (ev *T) UnmarshalJSON(data []byte) (err error) {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("event is not valid JSON")
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return fmt.Errorf("event is not a JSON object")
	}
	if v := r.Get("id"); v.Exists() {
		if v.Type != gjson.String {
			return fmt.Errorf("event id is not a string")
		}
		ev.ID = eventid.T(v.Str)
	}
	if v := r.Get("pubkey"); v.Exists() {
		if v.Type != gjson.String {
			return fmt.Errorf("event pubkey is not a string")
		}
		ev.PubKey = v.Str
	}
	if v := r.Get("created_at"); v.Exists() {
		if v.Type != gjson.Number {
			return fmt.Errorf("event created_at is not a number")
		}
		ev.CreatedAt = timestamp.T(v.Int())
	}
	if v := r.Get("kind"); v.Exists() {
		if v.Type != gjson.Number {
			return fmt.Errorf("event kind is not a number")
		}
		k := v.Int()
		if k < 0 || k > 65535 {
			return fmt.Errorf("event kind %d out of range", k)
		}
		ev.Kind = kind.T(k)
	}
	if v := r.Get("tags"); v.Exists() {
		if !v.IsArray() {
			return fmt.Errorf("event tags is not an array")
		}
		if ev.Tags, err = parseTags(v); err != nil {
			return
		}
	}
	if v := r.Get("content"); v.Exists() {
		if v.Type != gjson.String {
			return fmt.Errorf("event content is not a string")
		}
		ev.Content = v.Str
	}
	if v := r.Get("sig"); v.Exists() {
		if v.Type != gjson.String {
			return fmt.Errorf("event sig is not a string")
		}
		ev.Sig = v.Str
	}
	return
}

func parseTags(v gjson.Result) (t tags.T, err error) {
	rows := v.Array()
	t = make(tags.T, 0, len(rows))
	for _, row := range rows {
		if !row.IsArray() {
			return nil, fmt.Errorf("tag row is not an array")
		}
		elems := row.Array()
		if len(elems) == 0 {
			return nil, fmt.Errorf("empty tag row")
		}
		tt := make(tag.T, 0, len(elems))
		for _, elem := range elems {
			if elem.Type != gjson.String {
				return nil, fmt.Errorf("tag element is not a string")
			}
			tt = append(tt, elem.Str)
		}
		t = append(t, tt)
	}
	return
}
