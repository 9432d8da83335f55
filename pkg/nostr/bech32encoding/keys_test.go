package bech32encoding

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/chebizarro/nostrc-go/pkg/nostr/pointers"
)

func TestConvertBits(t *testing.T) {
	var err error
	var b5, b8, b58 []byte
	b8 = make([]byte, 32)
	for i := 0; i < 1000; i++ {
		b8[i%32]++
		b5, err = ConvertForBech32(b8)
		if err != nil {
			t.Fatal(err)
		}
		b58, err = ConvertFromBech32(b5)
		if err != nil {
			t.Fatal(err)
		}
		if string(b8) != string(b58[:32]) {
			t.Fatalf("did not recover original bytes: %x != %x", b8, b58)
		}
	}
}

func TestSecretKeyToNsec(t *testing.T) {
	var err error
	var sec, reSec *btcec.PrivateKey
	var nsec, reNsec string
	for i := 0; i < 100; i++ {
		if sec, err = btcec.NewPrivateKey(); err != nil {
			t.Fatalf("error generating key: '%s'", err)
		}
		if nsec, err = SecretKeyToNsec(sec); err != nil {
			t.Fatalf("error converting key to nsec: '%s'", err)
		}
		if reSec, err = NsecToSecretKey(nsec); err != nil {
			t.Fatalf("error nsec back to secret key: '%s'", err)
		}
		if string(sec.Serialize()) != string(reSec.Serialize()) {
			t.Fatalf("did not recover same key bytes: orig: %s, mangled: %s",
				hex.EncodeToString(sec.Serialize()),
				hex.EncodeToString(reSec.Serialize()))
		}
		if reNsec, err = SecretKeyToNsec(reSec); err != nil {
			t.Fatalf("error re-encoding recovered secret key: %s", err)
		}
		if reNsec != nsec {
			t.Fatalf("recovered key did not regenerate original nsec: "+
				"%s mangled: %s", reNsec, nsec)
		}
	}
}

func TestPublicKeyToNpub(t *testing.T) {
	var err error
	var sec *btcec.PrivateKey
	var pub, rePub *btcec.PublicKey
	var npub, reNpub string
	for i := 0; i < 100; i++ {
		if sec, err = btcec.NewPrivateKey(); err != nil {
			t.Fatalf("error generating key: '%s'", err)
		}
		pub = sec.PubKey()
		if npub, err = PublicKeyToNpub(pub); err != nil {
			t.Fatalf("error converting key to npub: '%s'", err)
		}
		if rePub, err = NpubToPublicKey(npub); err != nil {
			t.Fatalf("error npub back to public key: '%s'", err)
		}
		if string(schnorr.SerializePubKey(pub)) !=
			string(schnorr.SerializePubKey(rePub)) {
			t.Fatalf("did not recover same key bytes: orig: %s, mangled: %s",
				hex.EncodeToString(schnorr.SerializePubKey(pub)),
				hex.EncodeToString(schnorr.SerializePubKey(rePub)))
		}
		if reNpub, err = PublicKeyToNpub(rePub); err != nil {
			t.Fatalf("error re-encoding recovered public key: %s", err)
		}
		if reNpub != npub {
			t.Fatalf("recovered key did not regenerate original npub: "+
				"%s mangled: %s", reNpub, npub)
		}
	}
}

func TestDecodeNpubFixed(t *testing.T) {
	// fixture from NIP-19.
	prefix, value, err := DecodeToString(
		"npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg")
	if err != nil {
		t.Fatal(err)
	}
	if prefix != NpubHRP {
		t.Fatalf("expected npub prefix, got %s", prefix)
	}
	expected :=
		"7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e"
	if value != expected {
		t.Fatalf("got %s expected %s", value, expected)
	}
}

func TestDecodeNsecFixed(t *testing.T) {
	// fixture from NIP-19.
	prefix, value, err := DecodeToString(
		"nsec1vl029mgpspedva04g90vltkh6fvh240zqtv9k0t9af8935ke9laqsnlfe5")
	if err != nil {
		t.Fatal(err)
	}
	if prefix != NsecHRP {
		t.Fatalf("expected nsec prefix, got %s", prefix)
	}
	expected :=
		"67dea2ed018072d675f5415ecfaed7d2597555e202d85b3d65ea4e58d2d92ffa"
	if value != expected {
		t.Fatalf("got %s expected %s", value, expected)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	pk := "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	relays := []string{"wss://r.x.com", "wss://djbas.sadkb.com"}
	nprofile, err := EncodeProfile(pk, relays)
	if err != nil {
		t.Fatal(err)
	}
	prefix, value, err := Decode(nprofile)
	if err != nil {
		t.Fatal(err)
	}
	if prefix != NprofileHRP {
		t.Fatalf("expected nprofile prefix, got %s", prefix)
	}
	profile, ok := value.(pointers.Profile)
	if !ok {
		t.Fatalf("expected pointers.Profile, got %T", value)
	}
	if profile.PublicKey != pk {
		t.Fatalf("got pubkey %s expected %s", profile.PublicKey, pk)
	}
	if len(profile.Relays) != 2 || profile.Relays[0] != relays[0] ||
		profile.Relays[1] != relays[1] {
		t.Fatalf("relays did not round trip: %v", profile.Relays)
	}
}
