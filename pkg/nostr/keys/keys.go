// Package keys provides generation and derivation of nostr keypairs as the
// 64 character hexadecimal strings used in the wire encoding.
package keys

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"lukechampine.com/frand"

	"github.com/chebizarro/nostrc-go/pkg/hex"
)

// GeneratePrivateKey returns a new secret key as 64 character lowercase hex.
//
// The scalar is reduced into [1, N-1] so it is always valid for signing.
func GeneratePrivateKey() string {
	params := btcec.S256().Params()
	one := new(big.Int).SetInt64(1)

	// 8 extra bytes so the modular reduction bias is negligible.
	b := frand.Bytes(params.BitSize/8 + 8)

	k := new(big.Int).SetBytes(b)
	n := new(big.Int).Sub(params.N, one)
	k.Mod(k, n)
	k.Add(k, one)

	return fmt.Sprintf("%064x", k.Bytes())
}

// GetPublicKey derives the 32 byte x-only public key from a hex secret key
// and returns it as 64 character hex.
func GetPublicKey(sk string) (string, error) {
	b, err := hex.Dec(sk)
	if err != nil {
		return "", err
	}

	_, pk := btcec.PrivKeyFromBytes(b)
	return hex.Enc(schnorr.SerializePubKey(pk)), nil
}

// IsValid32ByteHex reports whether pk is a 64 character lowercase hex string,
// the form required for pubkeys and event ids on the wire.
func IsValid32ByteHex(pk string) bool {
	if strings.ToLower(pk) != pk {
		return false
	}
	dec, _ := hex.Dec(pk)
	return len(dec) == 32
}
