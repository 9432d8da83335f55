package noticeenvelope

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var log, _ = slog.New(os.Stderr)

// T carries a human readable message from a relay, usually an explanation
// for an unexpected behaviour or a policy complaint.
type T struct {
	Text string
}

func (env *T) Label() string { return labels.NOTICE }

func (env *T) UnmarshalJSON(data []byte) (err error) {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return log.E.Err("envelope not an array:\n%s", string(data))
	}
	arr := r.Array()
	if len(arr) < 2 || arr[1].Type != gjson.String {
		return log.E.Err("NOTICE envelope missing message:\n%s", string(data))
	}
	env.Text = arr[1].Str
	return
}

func (env *T) MarshalJSON() (b []byte, err error) {
	w := jwriter.Writer{}
	w.RawString(`["NOTICE",`)
	w.Raw(text.EscapeJSONStringAndWrap(env.Text), nil)
	w.RawString(`]`)
	return w.BuildBytes()
}

func (env *T) String() string {
	b, _ := env.MarshalJSON()
	return string(b)
}
