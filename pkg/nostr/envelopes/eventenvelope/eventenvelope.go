package eventenvelope

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, chk = slog.New(os.Stderr)

// T is the wrapper a relay expects around an event. The SubscriptionID is
// present on inbound delivery and on REQ results; an outbound publish carries
// only the event.
type T struct {
	SubscriptionID string
	Event          *event.T
}

// New builds an event envelope from a subscription ID and an event. The ID
// may be empty for a publish envelope but the event may not be nil.
func New(si string, ev *event.T) (env *T, err error) {
	if len(si) > 64 {
		err = log.E.Err("subscription id too long: %d > 64", len(si))
		return
	}
	if ev == nil {
		err = log.E.Err("cannot make event envelope with nil event")
		return
	}
	return &T{SubscriptionID: si, Event: ev}, nil
}

func (env *T) Label() string { return labels.EVENT }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	var raw string
	switch len(arr) {
	case 0, 1:
		return log.E.Err("missing event in EVENT envelope")
	case 2:
		raw = arr[1].Raw
	default:
		if arr[1].Type != gjson.String {
			return log.E.Err("subscription id is not a string:\n%s",
				string(data))
		}
		env.SubscriptionID = arr[1].Str
		raw = arr[2].Raw
	}
	env.Event = &event.T{}
	if err = env.Event.UnmarshalJSON([]byte(raw)); chk.D(err) {
		return
	}
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["EVENT",`)
	if env.SubscriptionID != "" {
		w.Raw(text.EscapeJSONStringAndWrap(env.SubscriptionID), nil)
		w.RawString(`,`)
	}
	w.Raw(env.Event.MarshalJSON())
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
