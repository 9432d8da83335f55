package array

import (
	"testing"
	"time"

	"github.com/chebizarro/nostrc-go/pkg/wire/object"
)

func TestArray(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	literal := T{"1", "aoeu", 3, ts, "sorta \"normal\"", 0.333}
	expected := `["1","aoeu",3,1700000000,"sorta \"normal\"",0.333]`
	if literal.String() != expected {
		t.Fatalf("got %s expected %s", literal.String(), expected)
	}
}

func TestArrayNested(t *testing.T) {
	literal := T{0, "pub", 1700000000, 1,
		object.T{{Key: "key", Value: "value"}}, "content\n"}
	expected := `[0,"pub",1700000000,1,{"key":"value"},"content\n"]`
	if got := string(literal.Bytes()); got != expected {
		t.Fatalf("got %s expected %s", got, expected)
	}
}
