package nip5f

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize caps a single protocol frame. Requests and responses are
// small, anything beyond this is a broken or hostile peer.
const MaxFrameSize = 1 << 20

// writeFrame sends payload prefixed with its big-endian uint32 length.
// Header and payload go out in one Write so concurrent writers on the
// same conn cannot interleave half a frame.
func writeFrame(w io.Writer, payload []byte) (err error) {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit %d",
			len(payload), MaxFrameSize)
	}
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)
	_, err = w.Write(buf)
	return
}

// readFrame reads one length-prefixed frame. The length is checked
// against MaxFrameSize before any payload byte is read.
func readFrame(r io.Reader) (payload []byte, err error) {
	var hdr [4]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit %d",
			n, MaxFrameSize)
	}
	payload = make([]byte, n)
	if _, err = io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return
}
