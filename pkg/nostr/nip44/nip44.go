// Package nip44 implements version 2 of the NIP-44 encrypted payload
// scheme: ChaCha20 with HKDF-derived per-message keys and an
// HMAC-SHA256 authenticator computed over the nonce and ciphertext.
package nip44

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

var log, chk = slog.New(os.Stderr)

const (
	Reserved int = iota
	Deprecated1
	Standard1
)

var (
	MinPlaintextSize = 0x0001 // 1b msg => padded to 32b
	MaxPlaintextSize = 0xffff // 65535 (64kb-1) => padded to 64kb
)

type EncryptOptions struct {
	Salt    []byte
	Version int
}

func Encrypt(conversationKey []byte, plaintext string,
	options *EncryptOptions) (cipherString string, err error) {

	version := Standard1
	if options.Version != 0 {
		version = options.Version
	}
	var salt []byte
	if options.Salt != nil {
		salt = options.Salt
	} else {
		if salt, err = randomBytes(32); chk.E(err) {
			return
		}
	}
	if version != 2 {
		return "", fmt.Errorf("unknown version %d", version)
	}
	if len(salt) != 32 {
		return "", errors.New("salt must be 32 bytes")
	}
	var enc, nonce, auth []byte
	if enc, nonce, auth, err = messageKeys(conversationKey, salt); chk.E(err) {
		return
	}
	var padded []byte
	if padded, err = pad(plaintext); chk.E(err) {
		return
	}
	var ciphertext []byte
	if ciphertext, err = chacha(enc, nonce, padded); chk.E(err) {
		return
	}
	var mac []byte
	if mac, err = sha256Hmac(auth, ciphertext, salt); chk.E(err) {
		return
	}
	concat := make([]byte, 0, 1+len(salt)+len(ciphertext)+len(mac))
	concat = append(concat, byte(version))
	concat = append(concat, salt...)
	concat = append(concat, ciphertext...)
	concat = append(concat, mac...)
	return base64.StdEncoding.EncodeToString(concat), nil
}

func Decrypt(conversationKey []byte, cipherString string) (plaintext string,
	err error) {

	cLen := len(cipherString)
	if cLen < 132 || cLen > 87472 {
		err = fmt.Errorf("invalid payload length: %d", cLen)
		log.D.Ln(err)
		return
	}
	if cipherString[0:1] == "#" {
		err = errors.New("unknown version")
		log.D.Ln(err)
		return
	}
	var decoded []byte
	if decoded, err = base64.StdEncoding.DecodeString(cipherString); err != nil {
		err = errors.New("invalid base64")
		log.D.Ln(err)
		return
	}
	if version := int(decoded[0]); version != 2 {
		err = fmt.Errorf("unknown version %d", version)
		log.D.Ln(err)
		return
	}
	dLen := len(decoded)
	if dLen < 99 || dLen > 65603 {
		err = fmt.Errorf("invalid data length: %d", dLen)
		log.D.Ln(err)
		return
	}
	salt, ciphertext, mac := decoded[1:33], decoded[33:dLen-32], decoded[dLen-32:]
	var enc, nonce, auth []byte
	if enc, nonce, auth, err = messageKeys(conversationKey, salt); chk.E(err) {
		return
	}
	var expectedMac []byte
	if expectedMac, err = sha256Hmac(auth, ciphertext, salt); chk.E(err) {
		return
	}
	if !hmac.Equal(mac, expectedMac) {
		return "", errors.New("invalid hmac")
	}
	var padded []byte
	if padded, err = chacha(enc, nonce, ciphertext); chk.E(err) {
		return
	}
	unpaddedLen := binary.BigEndian.Uint16(padded[0:2])
	if unpaddedLen < uint16(MinPlaintextSize) ||
		unpaddedLen > uint16(MaxPlaintextSize) ||
		len(padded) != 2+calcPadding(int(unpaddedLen)) {

		return "", errors.New("invalid padding")
	}
	unpadded := padded[2 : unpaddedLen+2]
	if len(unpadded) == 0 || len(unpadded) != int(unpaddedLen) {
		return "", errors.New("invalid padding")
	}
	return string(unpadded), nil
}

// GenerateConversationKey derives the shared symmetric key for a
// sender/recipient pair. The ECDH x coordinate is extracted with the
// "nip44-v2" salt; both directions of a conversation derive the same
// key.
func GenerateConversationKey(sendPrivkey *secp256k1.PrivateKey,
	recvPubkey *secp256k1.PublicKey) []byte {

	shared := secp256k1.GenerateSharedSecret(sendPrivkey, recvPubkey)
	return hkdf.Extract(sha256.New, shared, []byte("nip44-v2"))
}

func chacha(key, nonce, message []byte) (dst []byte, err error) {
	var cipher *chacha20.Cipher
	dst = make([]byte, len(message))
	if cipher, err = chacha20.NewUnauthenticatedCipher(key, nonce); chk.E(err) {
		return nil, err
	}
	cipher.XORKeyStream(dst, message)
	return
}

func randomBytes(n int) (buf []byte, err error) {
	buf = make([]byte, n)
	if _, err = rand.Read(buf); chk.E(err) {
		return nil, err
	}
	return
}

func sha256Hmac(key, ciphertext, aad []byte) ([]byte, error) {
	if len(aad) != 32 {
		return nil, errors.New("aad data must be 32 bytes")
	}
	h := hmac.New(sha256.New, key)
	h.Write(aad)
	h.Write(ciphertext)
	return h.Sum(nil), nil
}

func messageKeys(conversationKey, salt []byte) (enc, nonce, auth []byte,
	err error) {

	if len(conversationKey) != 32 {
		return nil, nil, nil, errors.New("conversation key must be 32 bytes")
	}
	if len(salt) != 32 {
		return nil, nil, nil, errors.New("salt must be 32 bytes")
	}
	enc, nonce, auth = make([]byte, 32), make([]byte, 12), make([]byte, 32)
	r := hkdf.Expand(sha256.New, conversationKey, salt)
	if _, err = io.ReadFull(r, enc); chk.E(err) {
		return nil, nil, nil, err
	}
	if _, err = io.ReadFull(r, nonce); chk.E(err) {
		return nil, nil, nil, err
	}
	if _, err = io.ReadFull(r, auth); chk.E(err) {
		return nil, nil, nil, err
	}
	return
}

// pad prefixes the plaintext with its big-endian uint16 length and
// zero-fills to the padded size given by calcPadding.
func pad(s string) ([]byte, error) {
	sb := []byte(s)
	sbLen := len(sb)
	if sbLen < 1 || sbLen > MaxPlaintextSize {
		return nil, errors.New("plaintext should be between 1b and 64kB")
	}
	padding := calcPadding(sbLen)
	result := make([]byte, 2, 2+padding)
	binary.BigEndian.PutUint16(result, uint16(sbLen))
	result = append(result, sb...)
	result = append(result, make([]byte, padding-sbLen)...)
	return result, nil
}

// calcPadding rounds a plaintext length up to the next chunk boundary,
// where the chunk is 32 bytes for short messages and an eighth of the
// next power of two above the length for longer ones.
func calcPadding(sLen int) int {
	if sLen <= 32 {
		return 32
	}
	nextPower := 1 << int(math.Floor(math.Log2(float64(sLen-1)))+1)
	chunk := int(math.Max(32, float64(nextPower/8)))
	return chunk * int(math.Floor(float64((sLen-1)/chunk))+1)
}
