package closedenvelope

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, _ = slog.New(os.Stderr)

// T is the message a relay sends when it terminates a subscription from its
// side, carrying a reason in the same prefixed form as OK rejections.
type T struct {
	SubscriptionID string
	Reason         string
}

func New(si string, reason string) *T {
	return &T{SubscriptionID: si, Reason: reason}
}

func (env *T) Label() string { return labels.CLOSED }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 3 || arr[1].Type != gjson.String {
		return log.E.Err("CLOSED envelope missing fields:\n%s", string(data))
	}
	env.SubscriptionID = arr[1].Str
	env.Reason = arr[2].Str
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["CLOSED",`)
	w.Raw(text.EscapeJSONStringAndWrap(env.SubscriptionID), nil)
	w.RawString(`,`)
	w.Raw(text.EscapeJSONStringAndWrap(env.Reason), nil)
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
