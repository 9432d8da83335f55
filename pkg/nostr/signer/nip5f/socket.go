package nip5f

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/chebizarro/nostrc-go/pkg/hex"

	"lukechampine.com/frand"
)

// runtimeDir returns the per-user runtime directory, falling back to the
// system temp dir on machines without a session manager.
func runtimeDir() string {
	if d := os.Getenv("XDG_RUNTIME_DIR"); d != "" {
		return d
	}
	return os.TempDir()
}

// SocketPath returns the default unix socket path for the signer daemon,
// honouring the NOSTR_SIGNER_SOCK override.
func SocketPath() string {
	if p := os.Getenv("NOSTR_SIGNER_SOCK"); p != "" {
		return p
	}
	return filepath.Join(runtimeDir(), "nostr", "signer.sock")
}

// TokenPath returns where the daemon writes, and clients read, the TCP
// auth token.
func TokenPath() string {
	return filepath.Join(runtimeDir(), "nostr", "token")
}

// loopback hosts permitted for TCP endpoints.
func loopbackHost(host string) bool {
	switch host {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}

// parseEndpoint maps an endpoint string to a dialable network and
// address. An empty endpoint means the default unix socket, "tcp:" plus
// host:port means loopback TCP, anything else is taken as a unix socket
// path.
func parseEndpoint(endpoint string) (network, addr string, err error) {
	if endpoint == "" {
		return "unix", SocketPath(), nil
	}
	if hp, ok := strings.CutPrefix(endpoint, "tcp:"); ok {
		var host, port string
		if host, port, err = net.SplitHostPort(hp); err != nil {
			// a bare IPv6 host:port like ::1:9735 lacks brackets, take
			// the last colon as the separator
			if i := strings.LastIndexByte(hp, ':'); i >= 0 {
				host, port, err = hp[:i], hp[i+1:], nil
			} else {
				return "", "", fmt.Errorf("invalid signer endpoint %q: %w",
					endpoint, err)
			}
		}
		if !loopbackHost(host) {
			return "", "", fmt.Errorf("refusing non-loopback signer host %q",
				host)
		}
		return "tcp", net.JoinHostPort(host, port), nil
	}
	return "unix", endpoint, nil
}

// mintToken generates a fresh 32-byte token, persists it for clients and
// returns the hex form the wire preface uses.
func mintToken() (token []byte, err error) {
	token = []byte(hex.Enc(frand.Bytes(32)))
	p := TokenPath()
	if err = os.MkdirAll(filepath.Dir(p), 0700); chk.E(err) {
		return nil, err
	}
	if err = os.WriteFile(p, token, 0600); chk.E(err) {
		return nil, err
	}
	return
}

// loadToken resolves the client-side token, preferring the environment
// over the token file.
func loadToken() (token []byte, err error) {
	if t := os.Getenv("NOSTR_SIGNER_TOKEN"); t != "" {
		return []byte(strings.TrimSpace(t)), nil
	}
	var b []byte
	if b, err = os.ReadFile(TokenPath()); err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(b))), nil
}
