package reqenvelope

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, _ = slog.New(os.Stderr)

// T is the message that opens a subscription: a subscription ID followed by
// one or more filters, any of which may match (OR).
type T struct {
	SubscriptionID string
	Filters        filters.T
}

func (env *T) Label() string { return labels.REQ }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 3 {
		return log.E.Err("REQ envelope missing filters:\n%s", string(data))
	}
	if arr[1].Type != gjson.String {
		return log.E.Err("subscription id is not a string:\n%s", string(data))
	}
	env.SubscriptionID = arr[1].Str
	env.Filters = make(filters.T, 0, len(arr)-2)
	for i := 2; i < len(arr); i++ {
		f := &filter.T{}
		if err = f.UnmarshalJSON([]byte(arr[i].Raw)); err != nil {
			return log.E.Err("REQ filter %d: %s", i-2, err)
		}
		env.Filters = append(env.Filters, f)
	}
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["REQ",`)
	w.Raw(text.EscapeJSONStringAndWrap(env.SubscriptionID), nil)
	for _, f := range env.Filters {
		w.RawString(`,`)
		w.Raw(f.MarshalJSON())
	}
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
