package filter

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kinds"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
)

// UnmarshalJSON decodes a filter from its wire object, rolling `#<letter>`
// keys up into the Tags map. Unknown keys are ignored. A literal "limit":0
// sets LimitZero.
func (f *T) UnmarshalJSON(b []byte) (err error) {
	if f == nil {
		return fmt.Errorf("cannot unmarshal into nil filter")
	}
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("filter is not valid JSON")
	}
	r := gjson.ParseBytes(b)
	if !r.IsObject() {
		return fmt.Errorf("filter is not a JSON object")
	}
	f.Tags = make(TagMap)
	r.ForEach(func(key, value gjson.Result) bool {
		switch k := key.Str; k {
		case "ids":
			f.IDs, err = parseStringList(k, value)
		case "authors":
			f.Authors, err = parseStringList(k, value)
		case "kinds":
			f.Kinds, err = parseKindList(value)
		case "since":
			var ts *timestamp.Tp
			if ts, err = parseTimestamp(k, value); err == nil {
				f.Since = ts
			}
		case "until":
			var ts *timestamp.Tp
			if ts, err = parseTimestamp(k, value); err == nil {
				f.Until = ts
			}
		case "limit":
			if value.Type != gjson.Number {
				err = errType(k)
				break
			}
			f.Limit = int(value.Int())
			if f.Limit == 0 {
				f.LimitZero = true
			}
		case "search":
			if value.Type != gjson.String {
				err = errType(k)
				break
			}
			f.Search = value.Str
		default:
			// single letter tag constraints; anything else is ignored
			if len(k) == 2 && k[0] == '#' && isAlpha(k[1]) {
				var values tag.T
				if values, err = parseStringList(k, value); err == nil {
					f.Tags[k] = values
				}
			}
		}
		return err == nil
	})
	return
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func parseStringList(key string, v gjson.Result) (t tag.T, err error) {
	if !v.IsArray() {
		return nil, errType(key)
	}
	elems := v.Array()
	t = make(tag.T, 0, len(elems))
	for _, elem := range elems {
		if elem.Type != gjson.String {
			return nil, errType(key)
		}
		t = append(t, elem.Str)
	}
	return
}

func parseKindList(v gjson.Result) (k kinds.T, err error) {
	if !v.IsArray() {
		return nil, errType("kinds")
	}
	elems := v.Array()
	k = make(kinds.T, 0, len(elems))
	for _, elem := range elems {
		if elem.Type != gjson.Number {
			return nil, errType("kinds")
		}
		n := elem.Int()
		if n < 0 || n > 65535 {
			return nil, fmt.Errorf("filter kind %d out of range", n)
		}
		k = append(k, kind.T(n))
	}
	return
}

func parseTimestamp(key string, v gjson.Result) (*timestamp.Tp, error) {
	if v.Type != gjson.Number {
		return nil, errType(key)
	}
	return timestamp.T(v.Int()).Ptr(), nil
}
