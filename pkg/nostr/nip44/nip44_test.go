package nip44

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/chebizarro/nostrc-go/pkg/hex"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"lukechampine.com/frand"
)

func keyPair(t *testing.T, skHex string) (*secp256k1.PrivateKey,
	*secp256k1.PublicKey) {

	t.Helper()
	skb, err := hex.Dec(skHex)
	if err != nil {
		t.Fatalf("bad secret key hex: %v", err)
	}
	sk := secp256k1.PrivKeyFromBytes(skb)
	return sk, sk.PubKey()
}

func TestConversationKey(t *testing.T) {
	sk1, pk1 := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000001")
	sk2, pk2 := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000002")
	k12 := GenerateConversationKey(sk1, pk2)
	k21 := GenerateConversationKey(sk2, pk1)
	if !bytes.Equal(k12, k21) {
		t.Fatal("conversation key is not symmetric")
	}
	expected := "c41c775356fd92eadc63ff5a0dc1da211b268cbea22316767095b2871ea1412d"
	if hex.Enc(k12) != expected {
		t.Fatalf("conversation key mismatch:\ngot  %s\nwant %s",
			hex.Enc(k12), expected)
	}
}

func TestCalcPadding(t *testing.T) {
	for _, c := range [][2]int{
		{16, 32}, {32, 32}, {33, 64}, {37, 64}, {45, 64}, {49, 64},
		{64, 64}, {65, 96}, {100, 128}, {111, 128}, {200, 224},
		{250, 256}, {320, 320}, {383, 384}, {384, 384}, {400, 448},
		{500, 512}, {512, 512}, {515, 640}, {700, 768}, {800, 896},
		{65535, 65536},
	} {
		if got := calcPadding(c[0]); got != c[1] {
			t.Errorf("calcPadding(%d) = %d, want %d", c[0], got, c[1])
		}
	}
}

func TestEncryptDecrypt(t *testing.T) {
	sk1, _ := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000001")
	_, pk2 := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000002")
	ck := GenerateConversationKey(sk1, pk2)
	for _, size := range []int{1, 31, 32, 33, 64, 65, 100, 512, 515, 65535} {
		plaintext := string(bytes.Repeat([]byte{'x'}, size))
		ciphertext, err := Encrypt(ck, plaintext, &EncryptOptions{})
		if err != nil {
			t.Fatalf("encrypt size %d: %v", size, err)
		}
		decrypted, err := Decrypt(ck, ciphertext)
		if err != nil {
			t.Fatalf("decrypt size %d: %v", size, err)
		}
		if decrypted != plaintext {
			t.Fatalf("round trip mismatch at size %d", size)
		}
	}
}

func TestEncryptFixedNonce(t *testing.T) {
	sk1, _ := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000001")
	_, pk2 := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000002")
	ck := GenerateConversationKey(sk1, pk2)
	salt, err := hex.Dec(
		"0000000000000000000000000000000000000000000000000000000000000001")
	if err != nil {
		t.Fatal(err)
	}
	ciphertext, err := Encrypt(ck, "a", &EncryptOptions{Salt: salt})
	if err != nil {
		t.Fatal(err)
	}
	// version 2 plus the 32 byte nonce occupy the first 33 bytes, which
	// encode to exactly 44 base64 characters.
	prefix := base64.StdEncoding.EncodeToString(
		append([]byte{2}, salt...))
	if !strings.HasPrefix(ciphertext, prefix) {
		t.Fatalf("payload prefix mismatch:\ngot  %s\nwant %s…",
			ciphertext[:44], prefix)
	}
	// 1 byte plaintext pads to 32, so the full payload is
	// 1+32+(2+32)+32 = 99 bytes, the decrypt gate minimum.
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 99 {
		t.Fatalf("payload length = %d, want 99", len(decoded))
	}
	plaintext, err := Decrypt(ck, ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if plaintext != "a" {
		t.Fatalf("decrypted %q, want %q", plaintext, "a")
	}
}

func TestDecryptRejects(t *testing.T) {
	sk1, _ := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000001")
	_, pk2 := keyPair(t,
		"0000000000000000000000000000000000000000000000000000000000000002")
	ck := GenerateConversationKey(sk1, pk2)
	valid, err := Encrypt(ck, "hello", &EncryptOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = Decrypt(ck, "short"); err == nil {
		t.Error("undersized payload accepted")
	}
	if _, err = Decrypt(ck, strings.Repeat("A", 87473)); err == nil {
		t.Error("oversized payload accepted")
	}
	if _, err = Decrypt(ck, "#"+valid[1:]); err == nil {
		t.Error("future version marker accepted")
	}
	// flip one ciphertext byte and re-encode
	decoded, _ := base64.StdEncoding.DecodeString(valid)
	decoded[40] ^= 0x01
	if _, err = Decrypt(ck,
		base64.StdEncoding.EncodeToString(decoded)); err == nil {
		t.Error("tampered ciphertext accepted")
	}
	decoded[40] ^= 0x01
	decoded[0] = 1
	if _, err = Decrypt(ck,
		base64.StdEncoding.EncodeToString(decoded)); err == nil {
		t.Error("version 1 payload accepted")
	}
	// wrong conversation key must fail the mac
	other := frand.Bytes(32)
	if _, err = Decrypt(other, valid); err == nil {
		t.Error("wrong conversation key accepted")
	}
}
