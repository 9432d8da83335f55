package countenvelope

import (
	"os"
	"strconv"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, _ = slog.New(os.Stderr)

// T is the count envelope of both directions under one label: the request
// form carries filters like a REQ, the response form carries a count object.
// Count is nil on a request, set on a response.
type T struct {
	SubscriptionID string
	Filters        filters.T
	Count          *int64
}

func (env *T) Label() string { return labels.COUNT }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 3 {
		return log.E.Err("COUNT envelope missing payload:\n%s", string(data))
	}
	if arr[1].Type != gjson.String {
		return log.E.Err("subscription id is not a string:\n%s", string(data))
	}
	env.SubscriptionID = arr[1].Str
	// a response is an object with a count key, anything else is read as the
	// filter list of a request
	if c := arr[2].Get("count"); arr[2].IsObject() && c.Exists() {
		if c.Type != gjson.Number {
			return log.E.Err("COUNT response count is not a number:\n%s",
				string(data))
		}
		n := c.Int()
		env.Count = &n
		return
	}
	env.Filters = make(filters.T, 0, len(arr)-2)
	for i := 2; i < len(arr); i++ {
		f := &filter.T{}
		if err = f.UnmarshalJSON([]byte(arr[i].Raw)); err != nil {
			return log.E.Err("COUNT filter %d: %s", i-2, err)
		}
		env.Filters = append(env.Filters, f)
	}
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["COUNT",`)
	w.Raw(text.EscapeJSONStringAndWrap(env.SubscriptionID), nil)
	if env.Count != nil {
		w.RawString(`,{"count":` + strconv.FormatInt(*env.Count, 10) + `}`)
	} else {
		for _, f := range env.Filters {
			w.RawString(`,`)
			w.Raw(f.MarshalJSON())
		}
	}
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
