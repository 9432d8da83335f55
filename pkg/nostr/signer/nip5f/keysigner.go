package nip5f

import (
	"fmt"
	"os"
	"strings"

	"github.com/chebizarro/nostrc-go/pkg/hex"
	"github.com/chebizarro/nostrc-go/pkg/nostr/bech32encoding"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/keys"
	"github.com/chebizarro/nostrc-go/pkg/nostr/nip44"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// KeySigner is a Signer holding a single secret key in memory. Close
// zeroes the key material.
type KeySigner struct {
	skb []byte
	sec *btcec.PrivateKey
	pub string
}

var _ Signer = (*KeySigner)(nil)

// NewKeySigner accepts the secret key as 64 hex digits or a bech32 nsec.
func NewKeySigner(key string) (s *KeySigner, err error) {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, bech32encoding.NsecHRP+"1") {
		var prefix string
		if prefix, key, err = bech32encoding.DecodeToString(key); chk.D(err) {
			return
		}
		if prefix != bech32encoding.NsecHRP {
			return nil, fmt.Errorf("unexpected bech32 prefix %q", prefix)
		}
	}
	var skb []byte
	if skb, err = hex.Dec(key); err != nil {
		return nil, fmt.Errorf("secret key is not hex or nsec: %w", err)
	}
	if len(skb) != 32 {
		return nil, fmt.Errorf("secret key is %d bytes, need 32", len(skb))
	}
	var pub string
	if pub, err = keys.GetPublicKey(key); chk.E(err) {
		return
	}
	sec, _ := btcec.PrivKeyFromBytes(skb)
	return &KeySigner{skb: skb, sec: sec, pub: pub}, nil
}

func (s *KeySigner) GetPublicKey() (string, error) { return s.pub, nil }

func (s *KeySigner) SignEvent(ev *event.T, pubkey string) (*event.T, error) {
	if pubkey != "" && pubkey != s.pub {
		return nil, fmt.Errorf("no key for pubkey %s", pubkey)
	}
	ev.PubKey = s.pub
	if err := ev.Sign(hex.Enc(s.skb)); chk.D(err) {
		return nil, err
	}
	return ev, nil
}

func (s *KeySigner) conversationKey(peerPub string) (ck []byte, err error) {
	var pkb []byte
	if pkb, err = hex.Dec(peerPub); err != nil {
		return nil, fmt.Errorf("peer pubkey is not hex: %w", err)
	}
	var pk *btcec.PublicKey
	if pk, err = schnorr.ParsePubKey(pkb); chk.D(err) {
		return
	}
	return nip44.GenerateConversationKey(s.sec, pk), nil
}

func (s *KeySigner) Nip44Encrypt(peerPub, plaintext string) (string, error) {
	ck, err := s.conversationKey(peerPub)
	if err != nil {
		return "", err
	}
	return nip44.Encrypt(ck, plaintext, &nip44.EncryptOptions{})
}

func (s *KeySigner) Nip44Decrypt(peerPub, cipherB64 string) (string, error) {
	ck, err := s.conversationKey(peerPub)
	if err != nil {
		return "", err
	}
	return nip44.Decrypt(ck, cipherB64)
}

func (s *KeySigner) ListPublicKeys() ([]string, error) {
	return []string{s.pub}, nil
}

// Close wipes the key material. The signer is unusable afterwards.
func (s *KeySigner) Close() {
	s.sec.Zero()
	for i := range s.skb {
		s.skb[i] = 0
	}
}

// env keys checked by EnvSigner, first match wins.
var envKeys = []string{
	"NOSTR_SIGNER_KEY",
	"NOSTR_SIGNER_SECKEY_HEX",
	"NOSTR_SIGNER_NSEC",
}

// EnvSigner builds a KeySigner from the environment.
func EnvSigner() (s *KeySigner, err error) {
	for _, k := range envKeys {
		if v := os.Getenv(k); v != "" {
			return NewKeySigner(v)
		}
	}
	return nil, fmt.Errorf("no signer key in environment, set one of %s",
		strings.Join(envKeys, ", "))
}
