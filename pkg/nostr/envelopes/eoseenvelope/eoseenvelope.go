package eoseenvelope

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, _ = slog.New(os.Stderr)

// T is a message that indicates that all stored events have been delivered
// and thereafter events will be new and delivered in publish/subscribe
// fashion while the socket remains open.
type T struct {
	SubscriptionID string
}

func (env *T) Label() string { return labels.EOSE }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 2 || arr[1].Type != gjson.String {
		return log.E.Err("EOSE envelope missing subscription id:\n%s",
			string(data))
	}
	env.SubscriptionID = arr[1].Str
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["EOSE",`)
	w.Raw(text.EscapeJSONStringAndWrap(env.SubscriptionID), nil)
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
