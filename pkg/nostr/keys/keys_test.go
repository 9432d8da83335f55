package keys

import (
	"testing"
)

func TestGeneratePrivateKey(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		sk := GeneratePrivateKey()
		if len(sk) != 64 {
			t.Fatalf("secret key must be 64 hex chars, got %d", len(sk))
		}
		if !IsValid32ByteHex(sk) {
			t.Fatalf("secret key is not valid lowercase hex: %s", sk)
		}
		if _, ok := seen[sk]; ok {
			t.Fatal("generator returned a repeated key")
		}
		seen[sk] = struct{}{}
		pk, err := GetPublicKey(sk)
		if err != nil {
			t.Fatal(err)
		}
		if !IsValid32ByteHex(pk) {
			t.Fatalf("derived pubkey is not valid lowercase hex: %s", pk)
		}
	}
}

func TestGetPublicKeyFixed(t *testing.T) {
	// secret key 1 derives the x coordinate of the curve generator.
	sk := "0000000000000000000000000000000000000000000000000000000000000001"
	expected :=
		"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	pk, err := GetPublicKey(sk)
	if err != nil {
		t.Fatal(err)
	}
	if pk != expected {
		t.Fatalf("got %s expected %s", pk, expected)
	}
}

func TestIsValid32ByteHex(t *testing.T) {
	cases := map[string]bool{
		"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798": true,
		"79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798": false,
		"79be667e": false,
		"not hex at all": false,
	}
	for in, expected := range cases {
		if got := IsValid32ByteHex(in); got != expected {
			t.Fatalf("IsValid32ByteHex(%q) = %v, expected %v",
				in, got, expected)
		}
	}
}
