package event_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/chebizarro/nostrc-go/pkg/hex"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event/eventest"
	"github.com/chebizarro/nostrc-go/pkg/nostr/eventid"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tags"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
	"github.com/chebizarro/nostrc-go/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

const (
	TestSecHex = "1797f6f1d10593548b566ba32e81577aa4bc990eb0f16556bf884f1af4b17c25"
	TestPubHex = "4fdb07df4a683e3ee9b2a9d117e01bfe2548d7e8c0d4cb56d77e9c23091c3fc3"
)

func GetTestKeyPair() (sec *btcec.PrivateKey, pub *btcec.PublicKey) {
	b, _ := hex.Dec(TestSecHex)
	sec, pub = btcec.PrivKeyFromBytes(b)
	return
}

func TestCanonicalFixture(t *testing.T) {
	ev := &event.T{
		PubKey:    "000279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81",
		CreatedAt: timestamp.T(1700000000),
		Kind:      kind.TextNote,
		Tags:      tags.T{},
		Content:   "hello 😃 world\nline2",
	}
	expected := `[0,"000279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81",1700000000,1,[],"hello 😃 world\nline2"]`
	canonical := ev.ToCanonical().String()
	if canonical != expected {
		t.Fatalf("canonical form mismatch:\ngot  %s\nwant %s",
			canonical, expected)
	}
	want := hex.Enc(event.Hash([]byte(expected)))
	if got := string(ev.GetID()); got != want {
		t.Fatalf("id mismatch: got %s want %s", got, want)
	}
}

func TestSignAndVerify(t *testing.T) {
	contents := []string{
		"plain text",
		`brackets [ and ] and braces { and }`,
		"quotes \" and backslash \\ and\nnewline",
		"a tab\tand a carriage\rreturn",
	}
	sec, _ := GetTestKeyPair()
	for _, content := range contents {
		ev := &event.T{
			Kind:    kind.TextNote,
			Tags:    tags.T{{"e", "abc", "wss://relay.example.com", tag.MarkerRoot}},
			Content: content,
		}
		if err := ev.SignWithSecKey(sec); chk.D(err) {
			t.Fatal(err)
		}
		if ev.PubKey != TestPubHex {
			t.Fatalf("derived pubkey %s, want %s", ev.PubKey, TestPubHex)
		}
		if ev.CreatedAt == 0 {
			t.Fatal("created_at not stamped")
		}
		valid, err := ev.CheckSignature()
		if err != nil {
			t.Fatal(err)
		}
		if !valid {
			t.Fatalf("signature did not verify for content %q", content)
		}
	}
}

func TestCheckSignatureRejects(t *testing.T) {
	ev := &event.T{
		Kind:    kind.TextNote,
		Content: "immutable",
	}
	if err := ev.Sign(TestSecHex); chk.D(err) {
		t.Fatal(err)
	}

	// flipping one bit of the signature must fail verification
	flipped := *ev
	sig := []byte(flipped.Sig)
	if sig[0] == '0' {
		sig[0] = '1'
	} else {
		sig[0] = '0'
	}
	flipped.Sig = string(sig)
	if valid, _ := flipped.CheckSignature(); valid {
		t.Fatal("bit-flipped signature verified")
	}

	// a stored id that is not the canonical hash must fail
	wrongID := *ev
	id := []byte(wrongID.ID)
	if id[0] == '0' {
		id[0] = '1'
	} else {
		id[0] = '0'
	}
	wrongID.ID = eventid.T(id)
	if valid, _ := wrongID.CheckSignature(); valid {
		t.Fatal("mismatched id verified")
	}

	// mutating any signed field changes the canonical hash
	for name, mutate := range map[string]func(*event.T){
		"pubkey":     func(e *event.T) { e.PubKey = TestPubHex[:62] + "00" },
		"created_at": func(e *event.T) { e.CreatedAt++ },
		"kind":       func(e *event.T) { e.Kind = kind.Reaction },
		"tags":       func(e *event.T) { e.Tags = tags.T{{"t", "x"}} },
		"content":    func(e *event.T) { e.Content += "!" },
	} {
		mutated := *ev
		mutate(&mutated)
		if valid, _ := mutated.CheckSignature(); valid {
			t.Fatalf("mutated %s still verified", name)
		}
	}
}

func TestEventSerialization(t *testing.T) {
	for _, evt := range eventest.D {
		var b []byte
		var err error
		b, err = json.Marshal(evt)
		if err != nil {
			t.Fatal(err)
		}
		var re event.T
		if err = json.Unmarshal(b, &re); err != nil {
			t.Log(string(b))
			t.Error("failed to re parse event just serialized", err)
		}
		if evt.ID != re.ID || evt.PubKey != re.PubKey ||
			evt.Content != re.Content || evt.CreatedAt != re.CreatedAt ||
			evt.Sig != re.Sig || len(evt.Tags) != len(re.Tags) {
			t.Error("reparsed event differs from original")
		}
		for i := range evt.Tags {
			if len(evt.Tags[i]) != len(re.Tags[i]) {
				t.Errorf("reparsed tags %d length differ from original", i)
				continue
			}
			for j := range evt.Tags[i] {
				if evt.Tags[i][j] != re.Tags[i][j] {
					t.Errorf("reparsed tag content %d %d differs from original",
						i, j)
				}
			}
		}
	}
}

func TestUnmarshalRejects(t *testing.T) {
	for name, raw := range map[string]string{
		"empty tag row":       `{"kind":1,"tags":[[]],"content":""}`,
		"numeric tag element": `{"kind":1,"tags":[["e",5]],"content":""}`,
		"object tags":         `{"kind":1,"tags":{"e":"x"},"content":""}`,
		"string kind":         `{"kind":"1","tags":[],"content":""}`,
		"kind out of range":   `{"kind":70000,"tags":[],"content":""}`,
		"numeric content":     `{"kind":1,"tags":[],"content":42}`,
		"array not object":    `["EVENT","sub:1",{}]`,
		"truncated":           `{"kind":1,"tags":[`,
	} {
		var ev event.T
		if err := json.Unmarshal([]byte(raw), &ev); err == nil {
			t.Errorf("%s: parse accepted %s", name, raw)
		}
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	raw := `{"kind":1,"content":"hi","seen_on":["wss://a"],"tags":[["t","x"]],"nosuchfield":5}`
	var ev event.T
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Kind != kind.TextNote || ev.Content != "hi" || len(ev.Tags) != 1 {
		t.Fatalf("parse dropped known fields: %v", ev.ToObject().String())
	}
}

