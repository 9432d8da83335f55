package filter_test

import (
	"encoding/json"
	"testing"

	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters/filtertest"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kinds"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tags"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
)

func TestFilterString(t *testing.T) {
	// check that array stringer and json.Marshal produce identical outputs
	a := filtertest.D.ToArray().Bytes()
	b, err := json.Marshal(filtertest.D)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatalf("outputs differ:\n%s\n%s", a, b)
	}
	// check that unmarshalling this back to the runtime form and
	// re-serializing produces the same bytes.
	var thing filters.T
	if err = json.Unmarshal(b, &thing); err != nil {
		t.Fatal(err)
	}
	c := thing.ToArray().Bytes()
	if string(a) != string(c) {
		t.Fatalf("reserialized filters differ:\n%s\n%s", a, c)
	}
}

func TestTagRouting(t *testing.T) {
	var f filter.T
	raw := `{"kinds":[1],"#e":["x1","x2"],"#p":["y"]}`
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatal(err)
	}
	match := &event.T{
		Kind: kind.TextNote,
		Tags: tags.T{{"e", "x1"}, {"p", "y"}},
	}
	if !f.Matches(match) {
		t.Error("filter did not match event with both tag constraints")
	}
	wrongTag := &event.T{
		Kind: kind.TextNote,
		Tags: tags.T{{"e", "x3"}},
	}
	if f.Matches(wrongTag) {
		t.Error("filter matched event with wrong e tag value")
	}
	wrongKind := &event.T{
		Kind: kind.Reaction,
		Tags: tags.T{{"e", "x1"}, {"p", "y"}},
	}
	if f.Matches(wrongKind) {
		t.Error("filter matched event of excluded kind")
	}
}

func TestMatchesPrefix(t *testing.T) {
	ev := &event.T{
		ID:     "92570b321da503eac8014b23447301eb3d0bbdfbace0d11a4e4072e72bb7205d",
		PubKey: "e9142f724955c5854de36324dab0434f97b15ec6b33464d56ebe491e3f559d1b",
		Kind:   kind.TextNote,
	}
	if !(&filter.T{IDs: tag.T{"92570b32"}}).Matches(ev) {
		t.Error("id prefix did not match")
	}
	if (&filter.T{IDs: tag.T{"92570b33"}}).Matches(ev) {
		t.Error("wrong id prefix matched")
	}
	if !(&filter.T{Authors: tag.T{"e9142f72"}}).Matches(ev) {
		t.Error("author prefix did not match")
	}
	if (&filter.T{Authors: tag.T{"ffff"}}).Matches(ev) {
		t.Error("wrong author prefix matched")
	}
}

func TestMatchesBounds(t *testing.T) {
	ev := &event.T{Kind: kind.TextNote, CreatedAt: timestamp.T(1700000000)}
	// since and until are inclusive
	if !(&filter.T{Since: timestamp.T(1700000000).Ptr()}).Matches(ev) {
		t.Error("since equal to created_at did not match")
	}
	if !(&filter.T{Until: timestamp.T(1700000000).Ptr()}).Matches(ev) {
		t.Error("until equal to created_at did not match")
	}
	if (&filter.T{Since: timestamp.T(1700000001).Ptr()}).Matches(ev) {
		t.Error("since after created_at matched")
	}
	if (&filter.T{Until: timestamp.T(1699999999).Ptr()}).Matches(ev) {
		t.Error("until before created_at matched")
	}
	// the empty filter matches everything
	if !(&filter.T{}).Matches(ev) {
		t.Error("empty filter did not match")
	}
	if (&filter.T{}).Matches(nil) {
		t.Error("nil event matched")
	}
}

func TestLimitZero(t *testing.T) {
	var f filter.T
	if err := json.Unmarshal([]byte(`{"kinds":[1],"limit":0}`), &f); err != nil {
		t.Fatal(err)
	}
	if !f.LimitZero {
		t.Fatal("limit zero flag not set by explicit zero limit")
	}
	if f.Matches(&event.T{Kind: kind.TextNote}) {
		t.Error("limit zero filter matched an event")
	}
	// the explicit zero limit survives a round trip
	out := f.String()
	if out != `{"kinds":[1],"limit":0}` {
		t.Errorf("serialized %s", out)
	}
	// an absent limit stays absent
	var g filter.T
	if err := json.Unmarshal([]byte(`{"kinds":[1]}`), &g); err != nil {
		t.Fatal(err)
	}
	if g.LimitZero {
		t.Error("limit zero flag set without a limit field")
	}
	if got := g.String(); got != `{"kinds":[1]}` {
		t.Errorf("serialized %s", got)
	}
}

func TestUnmarshalRejectsBadTypes(t *testing.T) {
	for name, raw := range map[string]string{
		"ids not array":      `{"ids":"abc"}`,
		"numeric id":         `{"ids":[1]}`,
		"kinds not array":    `{"kinds":1}`,
		"string kind":        `{"kinds":["1"]}`,
		"kind out of range":  `{"kinds":[70000]}`,
		"since not number":   `{"since":"yesterday"}`,
		"search not string":  `{"search":5}`,
		"tag values numeric": `{"#e":[5]}`,
	} {
		var f filter.T
		if err := json.Unmarshal([]byte(raw), &f); err == nil {
			t.Errorf("%s: parse accepted %s", name, raw)
		}
	}
}

func TestUnknownKeysIgnored(t *testing.T) {
	var f filter.T
	raw := `{"kinds":[1],"relays":["wss://x"],"#long":["a"],"cursor":"abc"}`
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Tags) != 0 {
		t.Errorf("multi-letter tag key accepted into tag map: %v", f.Tags)
	}
	if !f.Kinds.Equals(kinds.T{kind.TextNote}) {
		t.Errorf("known keys lost: %v", f.Kinds)
	}
}

func TestFilterEqualAndClone(t *testing.T) {
	for _, f := range filtertest.D {
		if !filter.FilterEqual(f, f.Clone()) {
			t.Errorf("clone not equal to original: %s", f)
		}
	}
	a := filtertest.D[0]
	b := a.Clone()
	b.Tags["#e"] = tag.T{"different"}
	if filter.FilterEqual(a, b) {
		t.Error("filters with different tag values compared equal")
	}
	c := a.Clone()
	c.Limit = 999
	if !filter.FilterEqual(a, c) {
		t.Error("limit must not participate in filter equality")
	}
}
