package nip5f

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/hex"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
	"golang.org/x/net/netutil"
)

const (
	// ServerName is announced in the banner frame.
	ServerName = "nostr-signer"
	// DefaultMaxConnections bounds concurrent TCP clients.
	DefaultMaxConnections = 100
)

// Server accepts signer connections and dispatches requests to a Signer.
type Server struct {
	signer Signer
	ctx    context.T
	cancel context.F
	mx     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	// sockPath is set for unix listeners so Close can unlink it.
	sockPath string
	// token is non-nil for TCP listeners, every connection must open
	// with a matching AUTH preface.
	token []byte
	wg    sync.WaitGroup
}

func NewServer(c context.T, sig Signer) (s *Server) {
	s = &Server{signer: sig, conns: make(map[net.Conn]struct{})}
	s.ctx, s.cancel = context.Cancel(c)
	return
}

func maxConnections() int {
	if v := os.Getenv("NOSTR_SIGNER_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxConnections
}

// Listen binds the endpoint but does not accept yet. Unix sockets get a
// 0700 parent directory and 0600 socket, TCP listeners mint an auth
// token and are capped to maxConnections concurrent clients.
func (s *Server) Listen(endpoint string) (err error) {
	var network, addr string
	if network, addr, err = parseEndpoint(endpoint); chk.D(err) {
		return
	}
	switch network {
	case "unix":
		if err = os.MkdirAll(filepath.Dir(addr), 0700); chk.E(err) {
			return
		}
		// a previous daemon may have left the socket behind
		if err = os.Remove(addr); err != nil && !os.IsNotExist(err) {
			return
		}
		if s.ln, err = net.Listen("unix", addr); chk.E(err) {
			return
		}
		if err = os.Chmod(addr, 0600); chk.E(err) {
			return
		}
		s.sockPath = addr
	case "tcp":
		var ln net.Listener
		if ln, err = net.Listen("tcp", addr); chk.E(err) {
			return
		}
		if s.token, err = mintToken(); chk.E(err) {
			ln.Close()
			return
		}
		s.ln = netutil.LimitListener(ln, maxConnections())
	}
	log.D.F("signer listening on %s %s", network, s.ln.Addr())
	return nil
}

// Addr reports the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until Close. Each connection gets its own
// goroutine.
func (s *Server) Serve() (err error) {
	for {
		var conn net.Conn
		if conn, err = s.ln.Accept(); err != nil {
			s.mx.Lock()
			closed := s.closed
			s.mx.Unlock()
			if closed || s.ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.mx.Lock()
		if s.closed {
			s.mx.Unlock()
			conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mx.Unlock()
		go s.handle(conn)
	}
}

func (s *Server) ListenAndServe(endpoint string) (err error) {
	if err = s.Listen(endpoint); err != nil {
		return
	}
	return s.Serve()
}

// Close stops accepting, closes every live connection, waits for their
// handlers and unlinks the unix socket. Safe to call more than once.
func (s *Server) Close() (err error) {
	s.mx.Lock()
	if s.closed {
		s.mx.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mx.Unlock()
	s.cancel()
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.wg.Wait()
	if s.sockPath != "" {
		os.Remove(s.sockPath)
	}
	return
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mx.Lock()
		delete(s.conns, conn)
		s.mx.Unlock()
		s.wg.Done()
	}()
	br := bufio.NewReader(conn)
	if s.token != nil {
		if !readAuthPreface(br, s.token) {
			log.D.F("signer rejecting %s: bad auth preface",
				conn.RemoteAddr())
			return
		}
	}
	if err := writeFrame(conn, banner()); chk.D(err) {
		return
	}
	// the hello's contents are ignored
	if _, err := readFrame(br); chk.D(err) {
		return
	}
	for {
		req, err := readFrame(br)
		if err != nil {
			return
		}
		if err = writeFrame(conn, s.dispatch(req)); chk.D(err) {
			return
		}
	}
}

// readAuthPreface consumes the "AUTH <hex-token>\n" line and compares it
// against want in constant time.
func readAuthPreface(br *bufio.Reader, want []byte) bool {
	line, err := br.ReadSlice('\n')
	if err != nil {
		return false
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	got, ok := bytes.CutPrefix(line, []byte("AUTH "))
	if !ok {
		return false
	}
	return hex.EqConst(got, want)
}

func banner() []byte {
	w := jwriter.Writer{}
	w.RawString(`{"name":`)
	w.Raw(text.EscapeJSONStringAndWrap(ServerName), nil)
	w.RawString(`,"supported_methods":[`)
	for i, m := range supportedMethods {
		if i > 0 {
			w.RawString(",")
		}
		w.Raw(text.EscapeJSONStringAndWrap(m), nil)
	}
	w.RawString(`]}`)
	b, _ := w.BuildBytes()
	return b
}

// dispatch runs one request and always produces a response frame, even
// for garbage input.
func (s *Server) dispatch(req []byte) []byte {
	r := gjson.ParseBytes(req)
	if !r.IsObject() {
		return errorResponse("", CodeInvalidRequest, "invalid request")
	}
	id := r.Get("id").Str
	method := r.Get("method")
	if method.Type != gjson.String {
		return errorResponse(id, CodeInvalidRequest, "invalid request")
	}
	params := r.Get("params")
	switch method.Str {
	case "get_public_key":
		pub, err := s.signer.GetPublicKey()
		if chk.D(err) {
			return errorResponse(id, CodeHandlerFailed,
				"get_public_key failed")
		}
		return resultResponse(id, text.EscapeJSONStringAndWrap(pub))
	case "sign_event":
		evRaw := params.Get("event")
		if !evRaw.Exists() {
			return errorResponse(id, CodeInvalidRequest, "invalid params")
		}
		ev := &event.T{}
		if err := ev.UnmarshalJSON([]byte(evRaw.Raw)); chk.D(err) {
			return errorResponse(id, CodeInvalidRequest, "invalid params")
		}
		signed, err := s.signer.SignEvent(ev, params.Get("pubkey").Str)
		if chk.D(err) {
			return errorResponse(id, CodeHandlerFailed, "sign_event failed")
		}
		b, err := signed.MarshalJSON()
		if chk.E(err) {
			return errorResponse(id, CodeHandlerFailed, "sign_event failed")
		}
		return resultResponse(id, b)
	case "nip44_encrypt":
		peer := params.Get("peer_pub")
		plain := params.Get("plaintext")
		if peer.Type != gjson.String || plain.Type != gjson.String {
			return errorResponse(id, CodeInvalidRequest, "invalid params")
		}
		cipher, err := s.signer.Nip44Encrypt(peer.Str, plain.Str)
		if chk.D(err) {
			return errorResponse(id, CodeHandlerFailed,
				"nip44_encrypt failed")
		}
		return resultResponse(id, text.EscapeJSONStringAndWrap(cipher))
	case "nip44_decrypt":
		peer := params.Get("peer_pub")
		cipher := params.Get("cipher_b64")
		if peer.Type != gjson.String || cipher.Type != gjson.String {
			return errorResponse(id, CodeInvalidRequest, "invalid params")
		}
		plain, err := s.signer.Nip44Decrypt(peer.Str, cipher.Str)
		if chk.D(err) {
			return errorResponse(id, CodeHandlerFailed,
				"nip44_decrypt failed")
		}
		return resultResponse(id, text.EscapeJSONStringAndWrap(plain))
	case "list_public_keys":
		pubs, err := s.signer.ListPublicKeys()
		if chk.D(err) {
			return errorResponse(id, CodeHandlerFailed,
				"list_public_keys failed")
		}
		w := jwriter.Writer{}
		w.RawString("[")
		for i, p := range pubs {
			if i > 0 {
				w.RawString(",")
			}
			w.Raw(text.EscapeJSONStringAndWrap(p), nil)
		}
		w.RawString("]")
		b, _ := w.BuildBytes()
		return resultResponse(id, b)
	default:
		return errorResponse(id, CodeMethodNotSupported,
			"method not supported")
	}
}

// resultResponse emits {"id":…,"result":…,"error":null}. Both members
// are always present, clients rely on that.
func resultResponse(id string, result []byte) []byte {
	w := jwriter.Writer{}
	w.RawString(`{"id":`)
	w.Raw(text.EscapeJSONStringAndWrap(id), nil)
	w.RawString(`,"result":`)
	w.Raw(result, nil)
	w.RawString(`,"error":null}`)
	b, _ := w.BuildBytes()
	return b
}

func errorResponse(id string, code int, message string) []byte {
	w := jwriter.Writer{}
	w.RawString(`{"id":`)
	w.Raw(text.EscapeJSONStringAndWrap(id), nil)
	w.RawString(`,"result":null,"error":{"code":`)
	w.RawString(fmt.Sprintf("%d", code))
	w.RawString(`,"message":`)
	w.Raw(text.EscapeJSONStringAndWrap(message), nil)
	w.RawString(`}}`)
	b, _ := w.BuildBytes()
	return b
}
