package nip42

import (
	"testing"

	"github.com/chebizarro/nostrc-go/pkg/nostr/keys"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
)

func TestValidateAuthEvent(t *testing.T) {
	sk := keys.GeneratePrivateKey()
	pk, err := keys.GetPublicKey(sk)
	if err != nil {
		t.Fatal(err)
	}
	const (
		challenge = "difficult-random-string"
		relayURL  = "wss://relay.example.com"
	)
	ev := CreateUnsignedAuthEvent(challenge, pk, relayURL)
	if err = ev.Sign(sk); err != nil {
		t.Fatal(err)
	}
	gotPub, ok, err := ValidateAuthEvent(&ev, challenge, relayURL)
	if !ok {
		t.Fatalf("valid auth event rejected: %v", err)
	}
	if gotPub != pk {
		t.Fatalf("validated pubkey %s, want %s", gotPub, pk)
	}
	if _, ok, _ = ValidateAuthEvent(&ev, "other-challenge", relayURL); ok {
		t.Fatal("accepted auth event for a different challenge")
	}
	if _, ok, _ = ValidateAuthEvent(&ev, challenge,
		"wss://other.example.com"); ok {
		t.Fatal("accepted auth event for a different relay")
	}

	stale := CreateUnsignedAuthEvent(challenge, pk, relayURL)
	stale.CreatedAt = timestamp.Now() - 3600
	if err = stale.Sign(sk); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ = ValidateAuthEvent(&stale, challenge, relayURL); ok {
		t.Fatal("accepted auth event with stale timestamp")
	}

	unsigned := CreateUnsignedAuthEvent(challenge, pk, relayURL)
	if _, ok, _ = ValidateAuthEvent(&unsigned, challenge, relayURL); ok {
		t.Fatal("accepted unsigned auth event")
	}
}
