package closeenvelope

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, _ = slog.New(os.Stderr)

// T is the message a client sends to stop a subscription.
type T struct {
	SubscriptionID string
}

func New(si string) *T { return &T{SubscriptionID: si} }

func (env *T) Label() string { return labels.CLOSE }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 2 || arr[1].Type != gjson.String {
		return log.E.Err("CLOSE envelope missing subscription id:\n%s",
			string(data))
	}
	env.SubscriptionID = arr[1].Str
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["CLOSE",`)
	w.Raw(text.EscapeJSONStringAndWrap(env.SubscriptionID), nil)
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
