package envelopes_test

import (
	"testing"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/authenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/closedenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/closeenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/countenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/eoseenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/eventenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/noticeenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/okenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/reqenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/sentinel"
)

const signedEvent = `{"id":"ae1fc7154296569d87ca4663f6bdf448c217d1590d28c85d158557b8b43b4d69","pubkey":"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798","created_at":1683660344,"kind":1,"tags":[],"content":"hello world","sig":"94e10947814b1ebe38af42300ecd90c7642763896c4f69506ae97bfdf54eec3c0c21df96b7d95daa74ff3d414b1d758ee95fc258125deebc31df0c6ba9396a51"}`

func TestIdentify(t *testing.T) {
	for raw, want := range map[string]string{
		`["EVENT","sub:42",` + signedEvent + `]`: "EVENT",
		`["EOSE","sub:42"]`:                      "EOSE",
		`["NOTICE","hi"]`:                        "NOTICE",
		`["CLOSE","sub:1"]`:                      "CLOSE",
		`["CLOSED","sub:1","shutting down"]`:     "CLOSED",
		`["OK","ab",true,""]`:                    "OK",
		`["REQ","s",{}]`:                         "REQ",
		`["COUNT","s",{"count":1}]`:              "COUNT",
		`["AUTH","challenge-string"]`:            "AUTH",
		` [ "EOSE" , "sub:9" ]`:                  "EOSE",
	} {
		got, err := sentinel.Identify([]byte(raw))
		if err != nil {
			t.Errorf("%s: %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("%s: identified as %s, wanted %s", raw, got, want)
		}
	}
	for _, raw := range []string{
		`["CLOSEDX","sub:1"]`,
		`["event","sub:1"]`,
		`["",1]`,
		`{"not":"an array"}`,
		`garbage`,
	} {
		if got, err := sentinel.Identify([]byte(raw)); err == nil {
			t.Errorf("%s: identified as %s, wanted error", raw, got)
		}
	}
}

func TestParseMessageRoundTrip(t *testing.T) {
	for _, raw := range []string{
		`["EVENT","sub:42",` + signedEvent + `]`,
		`["EVENT",` + signedEvent + `]`,
		`["REQ","million",{"kinds":[1]},{"authors":["aa","bb"],"limit":20}]`,
		`["EOSE","sub:42"]`,
		`["NOTICE","error: \"test\" failed"]`,
		`["OK","3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefaaaaa",false,"error: could not connect to the database"]`,
		`["OK","3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefaaaaa",true,""]`,
		`["CLOSE","sub:21"]`,
		`["CLOSED","sub:21","auth-required: take a ticket"]`,
		`["AUTH","kjsabdlasb aslkd kasndkad \"as.kdnbskadb"]`,
		`["AUTH",` + signedEvent + `]`,
		`["COUNT","z",{"kinds":[3],"authors":["aaaa","bbbb"]}]`,
		`["COUNT","sub1",{"count":42}]`,
	} {
		env, err := envelopes.ParseMessage([]byte(raw))
		if err != nil {
			t.Errorf("%s: %v", raw, err)
			continue
		}
		out, err := env.MarshalJSON()
		if err != nil {
			t.Errorf("%s: remarshal: %v", raw, err)
			continue
		}
		if string(out) != raw {
			t.Errorf("round trip changed the message:\n%s\n%s", raw, out)
		}
	}
}

func TestParseMessageTypes(t *testing.T) {
	env, err := envelopes.ParseMessage(
		[]byte(`["EVENT","sub:42",` + signedEvent + `]`))
	if err != nil {
		t.Fatal(err)
	}
	ev, ok := env.(*eventenvelope.T)
	if !ok {
		t.Fatalf("EVENT parsed as %T", env)
	}
	if ev.SubscriptionID != "sub:42" {
		t.Errorf("subscription id %q", ev.SubscriptionID)
	}
	if ev.Event == nil || ev.Event.Kind != 1 ||
		ev.Event.Content != "hello world" {
		t.Errorf("event payload %v", ev.Event)
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["REQ","m",{"kinds":[1]},{"authors":["aa"]}]`)); err != nil {
		t.Fatal(err)
	}
	req, ok := env.(*reqenvelope.T)
	if !ok {
		t.Fatalf("REQ parsed as %T", env)
	}
	if len(req.Filters) != 2 {
		t.Errorf("expected 2 filters, got %d", len(req.Filters))
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["CLOSE","sub:1"]`)); err != nil {
		t.Fatal(err)
	}
	if _, ok = env.(*closeenvelope.T); !ok {
		t.Fatalf("CLOSE parsed as %T", env)
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["CLOSED","sub:1","reason"]`)); err != nil {
		t.Fatal(err)
	}
	if _, ok = env.(*closedenvelope.T); !ok {
		t.Fatalf("CLOSED parsed as %T", env)
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["EOSE","sub:1"]`)); err != nil {
		t.Fatal(err)
	}
	if _, ok = env.(*eoseenvelope.T); !ok {
		t.Fatalf("EOSE parsed as %T", env)
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["NOTICE","hi"]`)); err != nil {
		t.Fatal(err)
	}
	if n, k := env.(*noticeenvelope.T); !k || n.Text != "hi" {
		t.Fatalf("NOTICE parsed as %T %v", env, env)
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["OK","ab",true,"x"]`)); err != nil {
		t.Fatal(err)
	}
	if _, ok = env.(*okenvelope.T); !ok {
		t.Fatalf("OK parsed as %T", env)
	}
}

func TestAuthEnvelopeForms(t *testing.T) {
	env, err := envelopes.ParseMessage([]byte(`["AUTH","a challenge"]`))
	if err != nil {
		t.Fatal(err)
	}
	a, ok := env.(*authenvelope.T)
	if !ok {
		t.Fatalf("AUTH parsed as %T", env)
	}
	if a.Challenge != "a challenge" || a.Event != nil {
		t.Errorf("challenge form misparsed: %v", a)
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["AUTH",` + signedEvent + `]`)); err != nil {
		t.Fatal(err)
	}
	if a, ok = env.(*authenvelope.T); !ok {
		t.Fatalf("AUTH parsed as %T", env)
	}
	if a.Event == nil || a.Event.Kind != 1 {
		t.Errorf("event form misparsed: %v", a)
	}
}

func TestCountEnvelopeForms(t *testing.T) {
	env, err := envelopes.ParseMessage(
		[]byte(`["COUNT","z",{"kinds":[3]}]`))
	if err != nil {
		t.Fatal(err)
	}
	c, ok := env.(*countenvelope.T)
	if !ok {
		t.Fatalf("COUNT parsed as %T", env)
	}
	if c.Count != nil || len(c.Filters) != 1 {
		t.Errorf("request form misparsed: %v", c)
	}
	if env, err = envelopes.ParseMessage(
		[]byte(`["COUNT","z",{"count":42}]`)); err != nil {
		t.Fatal(err)
	}
	if c, ok = env.(*countenvelope.T); !ok {
		t.Fatalf("COUNT parsed as %T", env)
	}
	if c.Count == nil || *c.Count != 42 {
		t.Errorf("response form misparsed: %v", c)
	}
}

func TestTrailingElementsIgnored(t *testing.T) {
	env, err := envelopes.ParseMessage(
		[]byte(`["EOSE","sub:1","extra",5]`))
	if err != nil {
		t.Fatal(err)
	}
	e, ok := env.(*eoseenvelope.T)
	if !ok || e.SubscriptionID != "sub:1" {
		t.Errorf("trailing elements broke the parse: %T %v", env, env)
	}
}

func TestParseMessageRejects(t *testing.T) {
	for _, raw := range []string{
		`["UNKNOWN","x"]`,
		`["EVENT"]`,
		`["OK","ab","yes","x"]`,
		`["REQ","only-id"]`,
		`["AUTH",42]`,
		`not even json`,
	} {
		if env, err := envelopes.ParseMessage([]byte(raw)); err == nil {
			t.Errorf("%s: parsed as %T, wanted error", raw, env)
		}
	}
}
