package okenvelope

import (
	"os"
	"strings"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/nostr/eventid"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, _ = slog.New(os.Stderr)

// Reason is the machine readable prefix of an OK rejection message, followed
// by ": " and a human readable explanation.
type Reason string

const (
	PoW          Reason = "pow"
	Duplicate    Reason = "duplicate"
	Blocked      Reason = "blocked"
	RateLimited  Reason = "rate-limited"
	Invalid      Reason = "invalid"
	Error        Reason = "error"
	AuthRequired Reason = "auth-required"
)

// T is a relay message sent in response to an EVENT submission to indicate
// acceptance (OK is true) or rejection together with a reason for clients to
// display to users.
type T struct {
	ID     eventid.T
	OK     bool
	Reason string
}

// New builds an OK envelope; the reason prefix convention is not enforced
// here because some relays send bare human readable text.
func New(eid eventid.T, ok bool, reason string) *T {
	return &T{ID: eid, OK: ok, Reason: reason}
}

// Message prefixes a reason type onto a human readable message.
func Message(reason Reason, msg string) string {
	return string(reason) + ": " + msg
}

// ReasonType extracts the machine readable prefix of a reason, or an empty
// string when there is none.
func ReasonType(reason string) Reason {
	idx := strings.Index(reason, ": ")
	if idx < 0 {
		return ""
	}
	return Reason(reason[:idx])
}

func (env *T) Label() string { return labels.OK }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 4 {
		return log.E.Err("OK envelope missing fields:\n%s", string(data))
	}
	if arr[1].Type != gjson.String {
		return log.E.Err("OK envelope event id is not a string:\n%s",
			string(data))
	}
	if arr[2].Type != gjson.True && arr[2].Type != gjson.False {
		return log.E.Err("OK envelope status is not a boolean:\n%s",
			string(data))
	}
	env.ID = eventid.T(arr[1].Str)
	env.OK = arr[2].Bool()
	env.Reason = arr[3].Str
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["OK","` + env.ID.String() + `",`)
	if env.OK {
		w.RawString("true")
	} else {
		w.RawString("false")
	}
	w.RawString(`,`)
	w.Raw(text.EscapeJSONStringAndWrap(env.Reason), nil)
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
