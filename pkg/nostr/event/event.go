package event

import (
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/minio/sha256-simd"

	"github.com/chebizarro/nostrc-go/pkg/hex"
	"github.com/chebizarro/nostrc-go/pkg/nostr/eventid"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tags"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/array"
	"github.com/chebizarro/nostrc-go/pkg/wire/object"
)

var log, chk = slog.New(os.Stderr)

func Hash(in []byte) (out []byte) {
	h := sha256.Sum256(in)
	return h[:]
}

// T is the primary datatype of nostr. This is the form of the structure
// that defines its JSON string based format.
type T struct {

	// ID is the SHA256 hash of the canonical encoding of the event
	ID eventid.T `json:"id"`

	// PubKey is the public key of the event creator in *hexadecimal* format
	PubKey string `json:"pubkey"`

	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt timestamp.T `json:"created_at"`

	// Kind is the nostr protocol code for the type of event. See kind.T
	Kind kind.T `json:"kind"`

	// Tags are a list of tags, which are a list of strings usually structured
	// as a 3 layer scheme indicating specific features of an event.
	Tags tags.T `json:"tags"`

	// Content is an arbitrary string that can contain anything, but usually
	// conforming to a specification relating to the Kind and the Tags.
	Content string `json:"content"`

	// Sig is the signature on the ID hash that validates as coming from the
	// Pubkey.
	Sig string `json:"sig"`
}

// New returns an event with all fields empty and a non-nil tags list.
func New() (ev *T) { return &T{Tags: tags.T{}} }

// Ascending is a slice of events that sorts in ascending chronological order
type Ascending []*T

func (ev Ascending) Len() int           { return len(ev) }
func (ev Ascending) Less(i, j int) bool { return ev[i].CreatedAt < ev[j].CreatedAt }
func (ev Ascending) Swap(i, j int)      { ev[i], ev[j] = ev[j], ev[i] }

// Descending sorts a slice of events in reverse chronological order (newest
// first)
type Descending []*T

func (e Descending) Len() int           { return len(e) }
func (e Descending) Less(i, j int) bool { return e[i].CreatedAt > e[j].CreatedAt }
func (e Descending) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }

func (ev *T) ToObject() (o object.T) {
	return object.T{
		{Key: "id", Value: ev.ID},
		{Key: "pubkey", Value: ev.PubKey},
		{Key: "created_at", Value: ev.CreatedAt},
		{Key: "kind", Value: ev.Kind},
		{Key: "tags", Value: ev.Tags},
		{Key: "content", Value: ev.Content},
		{Key: "sig", Value: ev.Sig},
	}
}

func (ev *T) String() string { return ev.ToObject().String() }

func (ev *T) MarshalJSON() (bytes []byte, err error) {
	return ev.ToObject().Bytes(), nil
}

func (ev *T) Serialize() []byte { return ev.ToObject().Bytes() }

// ToCanonical returns a structure that provides a byte stringer that
// generates the canonical form used to generate the ID hash that can be
// signed. The encoding is the array
//
//	[0,pubkey,created_at,kind,tags,content]
//
// with strings escaped as per RFC8259 and no whitespace between elements.
func (ev *T) ToCanonical() (o array.T) {
	return array.T{0, ev.PubKey, ev.CreatedAt, ev.Kind, ev.Tags, ev.Content}
}

// GetIDBytes returns the raw SHA256 hash of the canonical form of an T.
// It never reads the ID or Sig fields.
func (ev *T) GetIDBytes() []byte { return Hash(ev.ToCanonical().Bytes()) }

// GetID serializes and returns the event ID as a hexadecimal string.
func (ev *T) GetID() eventid.T { return eventid.T(hex.Enc(ev.GetIDBytes())) }

// CheckSignature recomputes the canonical ID and verifies the signature
// against it. An event whose stored ID does not match the recomputed hash
// fails immediately. The error return carries the reason when valid is
// false for any cause other than an honest bad signature.
func (ev *T) CheckSignature() (valid bool, err error) {

	// the stored ID must be the hash of the canonical form.
	id := ev.GetIDBytes()
	if ev.ID != eventid.T(hex.Enc(id)) {
		err = log.E.Err("event id '%s' does not match canonical hash '%s'",
			ev.ID, hex.Enc(id))
		log.D.Ln(err)
		return
	}

	// decode pubkey hex to bytes.
	var pkBytes []byte
	if pkBytes, err = hex.Dec(ev.PubKey); chk.D(err) {
		err = log.E.Err("event pubkey '%s' is invalid hex: %w", ev.PubKey, err)
		log.D.Ln(err)
		return
	}

	// parse pubkey bytes.
	var pk *btcec.PublicKey
	if pk, err = schnorr.ParsePubKey(pkBytes); chk.D(err) {
		err = log.E.Err("event has invalid pubkey '%s': %w", ev.PubKey, err)
		log.D.Ln(err)
		return
	}

	// decode signature hex to bytes.
	var sigBytes []byte
	if sigBytes, err = hex.Dec(ev.Sig); chk.D(err) {
		err = log.E.Err("signature '%s' is invalid hex: %w", ev.Sig, err)
		log.D.Ln(err)
		return
	}

	// parse signature bytes.
	var sig *schnorr.Signature
	if sig, err = schnorr.ParseSignature(sigBytes); chk.D(err) {
		err = log.E.Err("failed to parse signature: %w", err)
		log.D.Ln(err)
		return
	}

	// check signature.
	valid = sig.Verify(id, pk)
	return
}

// Sign signs an event with a given Secret Key encoded in hexadecimal.
func (ev *T) Sign(skStr string, so ...schnorr.SignOption) (err error) {

	// secret key hex must be 64 characters.
	if len(skStr) != 64 {
		err = log.E.Err("invalid secret key length, 64 required, got %d",
			len(skStr))
		log.D.Ln(err)
		return
	}

	// decode secret key hex to bytes
	var skBytes []byte
	if skBytes, err = hex.Dec(skStr); chk.D(err) {
		err = log.E.Err("sign called with invalid secret key: %w", err)
		log.D.Ln(err)
		return
	}

	sk, _ := btcec.PrivKeyFromBytes(skBytes)
	return ev.SignWithSecKey(sk, so...)
}

// SignWithSecKey signs an event with a given *btcec.PrivateKey. The pubkey
// field is derived and filled when empty and created_at is stamped with the
// current time when zero, then the canonical ID is computed and signed.
func (ev *T) SignWithSecKey(sk *btcec.PrivateKey,
	so ...schnorr.SignOption) (err error) {

	if ev.PubKey == "" {
		ev.PubKey = hex.Enc(schnorr.SerializePubKey(sk.PubKey()))
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = timestamp.Now()
	}
	if ev.Tags == nil {
		ev.Tags = tags.T{}
	}

	// sign the event.
	var sig *schnorr.Signature
	id := ev.GetIDBytes()
	if sig, err = schnorr.Sign(sk, id, so...); chk.D(err) {
		return err
	}
	ev.ID = eventid.T(hex.Enc(id))
	ev.Sig = hex.Enc(sig.Serialize())
	return nil
}
