// Package nip5f implements the local signer protocol: a length-framed
// JSON-RPC dialect spoken over a unix domain socket or loopback TCP, so
// that applications can request signatures and NIP-44 payloads without
// ever holding the secret key themselves.
//
// The daemon side is Server wrapping a Signer implementation (KeySigner
// keeps a single key read from the environment). The application side is
// Client, which dials the endpoint, completes the banner/hello exchange
// and issues requests one at a time.
package nip5f

import (
	"fmt"
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

// Error codes carried in the "error" member of a response.
const (
	// CodeInvalidRequest covers malformed frames and bad params.
	CodeInvalidRequest = 1
	// CodeMethodNotSupported is returned for unknown methods.
	CodeMethodNotSupported = 2
	// CodeHandlerFailed is returned when the signer itself refuses or
	// fails the operation, for example a pubkey it has no key for.
	CodeHandlerFailed = 10
)

// Error is a structured failure sent by the signer daemon. Clients get it
// back from Client calls whenever the response carries a non-null error
// member, so callers can switch on Code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("signer error %d: %s", e.Code, e.Message)
}

// Signer is the set of operations a daemon exposes over the socket.
// Implementations must be safe for concurrent use, the server invokes
// them from one goroutine per connection.
type Signer interface {
	// GetPublicKey returns the hex public key of the default identity.
	GetPublicKey() (string, error)
	// SignEvent populates PubKey, ID and Sig on ev and returns it. If
	// pubkey is not empty the signature must be made with that identity
	// or an error returned.
	SignEvent(ev *event.T, pubkey string) (*event.T, error)
	// Nip44Encrypt encrypts plaintext to the hex public key peerPub and
	// returns the base64 payload.
	Nip44Encrypt(peerPub, plaintext string) (string, error)
	// Nip44Decrypt reverses Nip44Encrypt.
	Nip44Decrypt(peerPub, cipherB64 string) (string, error)
	// ListPublicKeys enumerates every identity the signer can use.
	ListPublicKeys() ([]string, error)
}

var supportedMethods = []string{
	"get_public_key",
	"sign_event",
	"nip44_encrypt",
	"nip44_decrypt",
	"list_public_keys",
}
