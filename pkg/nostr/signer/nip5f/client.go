package nip5f

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
)

// ClientName is announced in the hello frame.
const ClientName = "nostrc-go"

// Client is a connection to a signer daemon. Methods are safe for
// concurrent use, requests are serialized one at a time on the wire.
type Client struct {
	conn net.Conn
	br   *bufio.Reader
	// Supported lists the methods the daemon announced in its banner.
	Supported []string
	mx        sync.Mutex
	nextID    atomic.Int64
}

// Connect dials the signer at endpoint (see parseEndpoint for the
// accepted forms) and completes the banner/hello exchange.
func Connect(c context.T, endpoint string) (cl *Client, err error) {
	var network, addr string
	if network, addr, err = parseEndpoint(endpoint); chk.D(err) {
		return
	}
	var d net.Dialer
	var conn net.Conn
	if conn, err = d.DialContext(c, network, addr); err != nil {
		return nil, fmt.Errorf("failed to connect to signer: %w", err)
	}
	cl = &Client{conn: conn, br: bufio.NewReader(conn)}
	if network == "tcp" {
		var token []byte
		if token, err = loadToken(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("no signer token: %w", err)
		}
		preface := append(append([]byte("AUTH "), token...), '\n')
		if _, err = conn.Write(preface); chk.D(err) {
			conn.Close()
			return
		}
	}
	var bannerRaw []byte
	if bannerRaw, err = readFrame(cl.br); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read signer banner: %w", err)
	}
	for _, m := range gjson.GetBytes(bannerRaw, "supported_methods").Array() {
		cl.Supported = append(cl.Supported, m.Str)
	}
	w := jwriter.Writer{}
	w.RawString(`{"name":`)
	w.Raw(text.EscapeJSONStringAndWrap(ClientName), nil)
	w.RawString(`,"version":1}`)
	hello, _ := w.BuildBytes()
	if err = writeFrame(conn, hello); chk.D(err) {
		conn.Close()
		return nil, err
	}
	return cl, nil
}

func (cl *Client) Close() error { return cl.conn.Close() }

// call sends one request and reads its response. The connection mutex
// keeps a single request in flight, responses carry no ordering
// guarantee beyond the id match.
func (cl *Client) call(c context.T, method string,
	params []byte) (result gjson.Result, err error) {

	id := strconv.FormatInt(cl.nextID.Inc(), 10)
	w := jwriter.Writer{}
	w.RawString(`{"id":`)
	w.Raw(text.EscapeJSONStringAndWrap(id), nil)
	w.RawString(`,"method":`)
	w.Raw(text.EscapeJSONStringAndWrap(method), nil)
	w.RawString(`,"params":`)
	if params == nil {
		w.RawString("null")
	} else {
		w.Raw(params, nil)
	}
	w.RawString(`}`)
	req, _ := w.BuildBytes()
	cl.mx.Lock()
	defer cl.mx.Unlock()
	if dl, ok := c.Deadline(); ok {
		cl.conn.SetDeadline(dl)
		defer cl.conn.SetDeadline(time.Time{})
	}
	if err = writeFrame(cl.conn, req); chk.D(err) {
		return
	}
	var resp []byte
	if resp, err = readFrame(cl.br); chk.D(err) {
		return
	}
	r := gjson.ParseBytes(resp)
	if got := r.Get("id").Str; got != id {
		return result, fmt.Errorf(
			"signer response id %q does not match request id %q", got, id)
	}
	errv := r.Get("error")
	if !errv.Exists() {
		return result, fmt.Errorf("signer response has no error member")
	}
	if errv.Type != gjson.Null {
		return result, &Error{
			Code:    int(errv.Get("code").Int()),
			Message: errv.Get("message").Str,
		}
	}
	return r.Get("result"), nil
}

// GetPublicKey asks the daemon for its default identity.
func (cl *Client) GetPublicKey(c context.T) (pub string, err error) {
	var res gjson.Result
	if res, err = cl.call(c, "get_public_key", nil); err != nil {
		return
	}
	if res.Type != gjson.String {
		return "", fmt.Errorf("unexpected get_public_key result %s", res.Raw)
	}
	return res.Str, nil
}

// SignEvent sends ev for signing. If pubkey is not empty the daemon must
// sign with that identity. The returned event carries the id, pubkey and
// signature the daemon produced.
func (cl *Client) SignEvent(c context.T, ev *event.T,
	pubkey string) (signed *event.T, err error) {

	var raw []byte
	if raw, err = ev.MarshalJSON(); chk.E(err) {
		return
	}
	w := jwriter.Writer{}
	w.RawString(`{"event":`)
	w.Raw(raw, nil)
	if pubkey != "" {
		w.RawString(`,"pubkey":`)
		w.Raw(text.EscapeJSONStringAndWrap(pubkey), nil)
	}
	w.RawString(`}`)
	params, _ := w.BuildBytes()
	var res gjson.Result
	if res, err = cl.call(c, "sign_event", params); err != nil {
		return
	}
	signed = &event.T{}
	if err = signed.UnmarshalJSON([]byte(res.Raw)); chk.D(err) {
		return nil, err
	}
	return
}

// Nip44Encrypt encrypts plaintext for peerPub with the daemon's key.
func (cl *Client) Nip44Encrypt(c context.T, peerPub,
	plaintext string) (cipher string, err error) {

	w := jwriter.Writer{}
	w.RawString(`{"peer_pub":`)
	w.Raw(text.EscapeJSONStringAndWrap(peerPub), nil)
	w.RawString(`,"plaintext":`)
	w.Raw(text.EscapeJSONStringAndWrap(plaintext), nil)
	w.RawString(`}`)
	params, _ := w.BuildBytes()
	var res gjson.Result
	if res, err = cl.call(c, "nip44_encrypt", params); err != nil {
		return
	}
	if res.Type != gjson.String {
		return "", fmt.Errorf("unexpected nip44_encrypt result %s", res.Raw)
	}
	return res.Str, nil
}

// Nip44Decrypt reverses Nip44Encrypt.
func (cl *Client) Nip44Decrypt(c context.T, peerPub,
	cipherB64 string) (plain string, err error) {

	w := jwriter.Writer{}
	w.RawString(`{"peer_pub":`)
	w.Raw(text.EscapeJSONStringAndWrap(peerPub), nil)
	w.RawString(`,"cipher_b64":`)
	w.Raw(text.EscapeJSONStringAndWrap(cipherB64), nil)
	w.RawString(`}`)
	params, _ := w.BuildBytes()
	var res gjson.Result
	if res, err = cl.call(c, "nip44_decrypt", params); err != nil {
		return
	}
	if res.Type != gjson.String {
		return "", fmt.Errorf("unexpected nip44_decrypt result %s", res.Raw)
	}
	return res.Str, nil
}

// ListPublicKeys enumerates the daemon's identities.
func (cl *Client) ListPublicKeys(c context.T) (pubs []string, err error) {
	var res gjson.Result
	if res, err = cl.call(c, "list_public_keys", nil); err != nil {
		return
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("unexpected list_public_keys result %s",
			res.Raw)
	}
	for _, v := range res.Array() {
		pubs = append(pubs, v.Str)
	}
	return
}
