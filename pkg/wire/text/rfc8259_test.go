package text

import (
	"testing"

	"github.com/minio/sha256-simd"
	"lukechampine.com/frand"
)

func GenRandString(l int, src *frand.RNG) (str string) {
	return string(src.Bytes(l))
}

var seed = sha256.Sum256([]byte(`
The tao that can be told
is not the eternal Tao
The name that can be named
is not the eternal Name.

The unnamable is the eternally real.
Naming is the origin
of all particular things.
`))

var src = frand.NewCustom(seed[:], 32, 12)

func TestRandomEscapeJSONStringAndWrap(t *testing.T) {
	// this is a kind of fuzz test, does a large number of iterations of
	// random content that ensures the escaping is correct without creating a
	// fixed set of test vectors.
	for i := 0; i < 1000; i++ {
		l := src.Intn(1<<8) + 32
		s1 := GenRandString(l, src)
		orig := make([]byte, l)
		copy(orig, s1)

		// the two escape implementations must produce identical output.
		escapeStringVersion := EscapeString([]byte{}, s1)
		wrapVersion := EscapeJSONStringAndWrap(s1)
		if len(wrapVersion) != len(escapeStringVersion) {
			t.Logf("escapeString version %d chars, "+
				"escapeJSONStringAndWrap version %d chars\n",
				len(wrapVersion), len(escapeStringVersion))
			t.Logf("escapeString\n%v\n", escapeStringVersion)
			t.Logf("escapeJSONStringAndWrap\n%v\n", wrapVersion)
			t.FailNow()
		}
		for i := range escapeStringVersion {
			if escapeStringVersion[i] != wrapVersion[i] {
				t.Fatalf("escapeString version differs at index %d: "+
					"got '%s' %d expected '%s' %d\n", i,
					string(wrapVersion[i]), wrapVersion[i],
					string(escapeStringVersion[i]), escapeStringVersion[i])
			}
		}

		// next, unescape the output and see if it matches the original
		unescaped := UnescapeByteString(Unwrap(wrapVersion))
		if string(unescaped) != string(orig) {
			t.Fatalf("\ngot      %d %v\nexpected %d %v\n",
				len(unescaped), unescaped, len(orig), orig)
		}
	}
}

func TestEscapeControlCharacters(t *testing.T) {
	in := "ab\"c\\d\be\tf\ng\fh\ri\x01j\x1fk"
	expected := `"ab\"c\\d\be\tf\ng\fh\rijk"`
	got := string(EscapeJSONStringAndWrap(in))
	if got != expected {
		t.Fatalf("got %s expected %s", got, expected)
	}
	got = string(EscapeString(nil, in))
	if got != expected {
		t.Fatalf("got %s expected %s", got, expected)
	}
}
