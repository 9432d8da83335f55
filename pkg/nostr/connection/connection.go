// Package connection is a websocket client wrapper around gobwas/ws that
// negotiates permessage-deflate compression and exposes plain text frame
// read/write operations.
package connection

import (
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/gobwas/httphead"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsflate"
	"github.com/gobwas/ws/wsutil"
)

var log, chk = slog.New(os.Stderr)

type C struct {
	Conn              net.Conn
	enableCompression bool
	controlHandler    wsutil.FrameHandlerFunc
	flateReader       *wsflate.Reader
	reader            *wsutil.Reader
	flateWriter       *wsflate.Writer
	writer            *wsutil.Writer
	msgStateR         *wsflate.MessageState
	msgStateW         *wsflate.MessageState
	closeOnce         sync.Once
	closeErr          error
}

// New dials a websocket relay, requesting permessage-deflate, and returns a
// connection ready for WriteMessage/ReadMessage. Compression is only enabled
// when the server accepts the extension in the handshake.
func New(c context.T, url string, requestHeader http.Header) (conn *C,
	err error) {
	dialer := ws.Dialer{
		Header: ws.HandshakeHeaderHTTP(requestHeader),
		Extensions: []httphead.Option{
			wsflate.DefaultParameters.Option(),
		},
	}
	var netConn net.Conn
	var hs ws.Handshake
	if netConn, _, hs, err = dialer.Dial(c, url); chk.D(err) {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	enableCompression := false
	state := ws.StateClientSide
	for _, extension := range hs.Extensions {
		if string(extension.Name) == wsflate.ExtensionName {
			enableCompression = true
			state |= ws.StateExtended
			break
		}
	}
	// reader
	var flateReader *wsflate.Reader
	var msgStateR wsflate.MessageState
	if enableCompression {
		msgStateR.SetCompressed(true)
		flateReader = wsflate.NewReader(nil,
			func(r io.Reader) wsflate.Decompressor {
				return flate.NewReader(r)
			})
	}
	controlHandler := wsutil.ControlFrameHandler(netConn, ws.StateClientSide)
	reader := &wsutil.Reader{
		Source:         netConn,
		State:          state,
		OnIntermediate: controlHandler,
		CheckUTF8:      false,
		Extensions: []wsutil.RecvExtension{
			&msgStateR,
		},
	}
	// writer
	var flateWriter *wsflate.Writer
	var msgStateW wsflate.MessageState
	if enableCompression {
		msgStateW.SetCompressed(true)
		flateWriter = wsflate.NewWriter(nil,
			func(w io.Writer) wsflate.Compressor {
				fw, e := flate.NewWriter(w, 4)
				if chk.E(e) {
					log.E.F("failed to create flate writer: %v", e)
				}
				return fw
			})
	}
	writer := wsutil.NewWriter(netConn, state, ws.OpText)
	writer.SetExtensions(&msgStateW)
	return &C{
		Conn:              netConn,
		enableCompression: enableCompression,
		controlHandler:    controlHandler,
		flateReader:       flateReader,
		reader:            reader,
		msgStateR:         &msgStateR,
		flateWriter:       flateWriter,
		writer:            writer,
		msgStateW:         &msgStateW,
	}, nil
}

// WriteMessage writes one text frame, compressing when the handshake enabled
// the extension.
func (c *C) WriteMessage(data []byte) (err error) {
	if c.msgStateW.IsCompressed() && c.enableCompression {
		c.flateWriter.Reset(c.writer)
		if _, err = io.Copy(c.flateWriter,
			bytes.NewReader(data)); chk.D(err) {
			return fmt.Errorf("failed to write message: %w", err)
		}
		if err = c.flateWriter.Close(); chk.D(err) {
			return fmt.Errorf("failed to close flate writer: %w", err)
		}
	} else {
		if _, err = io.Copy(c.writer, bytes.NewReader(data)); chk.D(err) {
			return fmt.Errorf("failed to write message: %w", err)
		}
	}
	if err = c.writer.Flush(); chk.D(err) {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

// ReadMessage reads one text or binary frame into buf, answering any control
// frames encountered on the way. The blocking read returns promptly with an
// error after the context is cancelled or the connection closed.
func (c *C) ReadMessage(cx context.T, buf io.Writer) (err error) {
	for {
		select {
		case <-cx.Done():
			return errors.New("context canceled")
		default:
		}
		var h ws.Header
		if h, err = c.reader.NextFrame(); err != nil {
			c.Close()
			return fmt.Errorf("failed to advance frame: %w", err)
		}
		if h.OpCode.IsControl() {
			if err = c.controlHandler(h, c.reader); chk.D(err) {
				return fmt.Errorf("failed to handle control frame: %w", err)
			}
		} else if h.OpCode == ws.OpBinary || h.OpCode == ws.OpText {
			break
		}
		if err = c.reader.Discard(); chk.D(err) {
			return fmt.Errorf("failed to discard: %w", err)
		}
	}
	if c.msgStateR.IsCompressed() && c.enableCompression {
		c.flateReader.Reset(c.reader)
		if _, err = io.Copy(buf, c.flateReader); chk.D(err) {
			return fmt.Errorf("failed to read message: %w", err)
		}
	} else {
		if _, err = io.Copy(buf, c.reader); chk.D(err) {
			return fmt.Errorf("failed to read message: %w", err)
		}
	}
	return nil
}

// Ping writes a ping control frame directly on the underlying connection.
func (c *C) Ping() (err error) {
	return wsutil.WriteClientMessage(c.Conn, ws.OpPing, nil)
}

// Close shuts down reads and writes. It is idempotent; calls after the first
// return the first result.
func (c *C) Close() (err error) {
	c.closeOnce.Do(func() {
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}
