package normalize

import (
	"testing"
)

func TestURL(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"wss://x.com/y": "wss://x.com/y",
		"wss://x.com/y/": "wss://x.com/y",
		"http://x.com/y": "ws://x.com/y",
		"wss://x.com":    "wss://x.com",
		"wss://x.com/":   "wss://x.com",
		"x.com":          "wss://x.com",
		"x.com/":         "wss://x.com",
		"x.com////":      "wss://x.com",
		"x.com/?x=23":    "wss://x.com?x=23",
		"X.COM":          "wss://x.com",
	}
	for in, expected := range cases {
		if got := URL(in); got != expected {
			t.Fatalf("URL(%q) = %q, expected %q", in, got, expected)
		}
	}
	// idempotent
	if URL(URL("http://x.com/y")) != "ws://x.com/y" {
		t.Fatal("normalization must be idempotent")
	}
}
