package authenvelope

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

// T is the authentication envelope of both directions: the relay challenges
// with a string and the client responds with a signed kind 22242 event. When
// Event is set the envelope is the response form, otherwise the challenge.
type T struct {
	Challenge string
	Event     *event.T
}

func (env *T) Label() string { return labels.AUTH }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 2 {
		return log.E.Err("AUTH envelope missing payload:\n%s", string(data))
	}
	switch {
	case arr[1].Type == gjson.String:
		env.Challenge = arr[1].Str
	case arr[1].IsObject():
		env.Event = &event.T{}
		if err = env.Event.UnmarshalJSON([]byte(arr[1].Raw)); chk.D(err) {
			return
		}
	default:
		return log.E.Err("AUTH envelope carries neither challenge nor event:\n%s",
			string(data))
	}
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["AUTH",`)
	if env.Event != nil {
		w.Raw(env.Event.MarshalJSON())
	} else {
		w.Raw(text.EscapeJSONStringAndWrap(env.Challenge), nil)
	}
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
