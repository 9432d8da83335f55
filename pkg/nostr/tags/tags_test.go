package tags

import (
	"testing"

	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
)

func TestStartsWith(t *testing.T) {
	tt := tag.T{"e", "f0e0", "wss://relay.example.com", "reply"}
	if !tt.StartsWith([]string{"e", "f0e0"}) {
		t.Fatal("expected full element match")
	}
	if !tt.StartsWith([]string{"e", "f0"}) {
		t.Fatal("expected last element prefix match")
	}
	if tt.StartsWith([]string{"p", "f0e0"}) {
		t.Fatal("key mismatch must not match")
	}
	if tt.StartsWith([]string{"e", "f0e0", "wss://", "reply", "extra"}) {
		t.Fatal("longer prefix than tag must not match")
	}
}

func TestAppendUnique(t *testing.T) {
	var tg T
	tg = tg.AppendUnique(tag.T{"e", "abc"})
	tg = tg.AppendUnique(tag.T{"e", "abc", "wss://other.example.com"})
	tg = tg.AppendUnique(tag.T{"e", "def"})
	if len(tg) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tg))
	}
}

func TestContainsAny(t *testing.T) {
	tg := T{
		{"e", "abc"},
		{"p", "def"},
		{"p"},
	}
	if !tg.ContainsAny("p", "xyz", "def") {
		t.Fatal("expected match on p/def")
	}
	if tg.ContainsAny("p", "abc") {
		t.Fatal("value of e tag must not match under p")
	}
	if tg.ContainsAny("q", "def") {
		t.Fatal("missing tag name must not match")
	}
}

func TestMarshalTo(t *testing.T) {
	tg := T{
		{"e", "abc", "wss://relay.example.com"},
		{"client", "with \"quotes\" and\nnewline"},
	}
	expected := `[["e","abc","wss://relay.example.com"],` +
		`["client","with \"quotes\" and\nnewline"]]`
	if got := string(tg.MarshalTo(nil)); got != expected {
		t.Fatalf("got %s expected %s", got, expected)
	}
	if tg.String() != expected {
		t.Fatal("String must render identically to MarshalTo")
	}
}

func TestGetFirstGetLast(t *testing.T) {
	tg := T{
		{"e", "abc", "", "root"},
		{"e", "def", "", "reply"},
		{"p", "aaa"},
	}
	first := tg.GetFirst([]string{"e"})
	if first == nil || (*first)[1] != "abc" {
		t.Fatal("GetFirst must return the first e tag")
	}
	last := tg.GetLast([]string{"e"})
	if last == nil || (*last)[1] != "def" {
		t.Fatal("GetLast must return the last e tag")
	}
	if got := tg.GetAll("e"); len(got) != 2 {
		t.Fatalf("GetAll must return both e tags, got %d", len(got))
	}
	if got := tg.FilterOut([]string{"e"}); len(got) != 1 ||
		got[0].Key() != "p" {
		t.Fatal("FilterOut must remove the e tags")
	}
}
