package text

import (
	"fmt"
	"testing"
)

func TestUnescapeByteString(t *testing.T) {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	escaped := make([]byte, 256*6)
	for i := range b {
		copy(escaped[i*6:i*6+6], fmt.Sprintf("\\u00%02x", i))
	}
	unescaped := UnescapeByteString(escaped)
	if string(unescaped) != string(b) {
		t.Fatalf("mismatched from original after unescaping:\n%v\n%v",
			b, unescaped)
	}
	jsonEscaped := EscapeJSONStringAndWrap(string(b))
	jsonEscaped = jsonEscaped[1 : len(jsonEscaped)-1]
	jsonUnescaped := UnescapeByteString(jsonEscaped)
	if len(b) != len(jsonUnescaped) {
		t.Fatalf(
			"mismatch of original and unescaped strings: expected %d, got %d",
			len(b), len(jsonUnescaped))
	}
	var failed bool
	for i := range b {
		if b[i] != jsonUnescaped[i] {
			t.Logf("mismatch of character in output, index %d got %d "+
				"expected %d", i, b[i], jsonUnescaped[i])
			failed = true
		}
	}
	if failed {
		t.Log(b)
		t.Log(jsonUnescaped)
		t.FailNow()
	}
}

func TestBufferScan(t *testing.T) {
	doc := []byte(`  ["EVENT","sub:1",{"content":"a \"quoted\" [string]"}]`)
	buf := NewBuffer(doc)
	if err := buf.ScanThrough('['); err != nil {
		t.Fatal(err)
	}
	if err := buf.ScanThrough('"'); err != nil {
		t.Fatal(err)
	}
	label, err := buf.ReadUntil('"')
	if err != nil {
		t.Fatal(err)
	}
	if string(label) != "EVENT" {
		t.Fatalf("expected EVENT, got '%s'", label)
	}
	if err = buf.ScanThrough('{'); err != nil {
		t.Fatal(err)
	}
	buf.Pos--
	enclosed, err := buf.ReadEnclosed()
	if err != nil {
		t.Fatal(err)
	}
	if string(enclosed) != `{"content":"a \"quoted\" [string]"}` {
		t.Fatalf("unexpected enclosed segment: '%s'", enclosed)
	}
}
