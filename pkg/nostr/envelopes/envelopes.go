// Package envelopes implements the message framing of the wire protocol:
// JSON arrays whose first element is a type tag. The parser is strict about
// the first element and lenient about trailing unknown elements.
package envelopes

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/authenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/closedenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/closeenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/countenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/eoseenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/eventenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/noticeenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/okenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/reqenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/sentinel"
	"github.com/chebizarro/nostrc-go/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

// E is the interface all envelope types implement.
type E interface {
	Label() string
	UnmarshalJSON([]byte) error
	MarshalJSON() ([]byte, error)
	String() string
}

var (
	_ E = (*eventenvelope.T)(nil)
	_ E = (*reqenvelope.T)(nil)
	_ E = (*eoseenvelope.T)(nil)
	_ E = (*noticeenvelope.T)(nil)
	_ E = (*okenvelope.T)(nil)
	_ E = (*closeenvelope.T)(nil)
	_ E = (*closedenvelope.T)(nil)
	_ E = (*authenvelope.T)(nil)
	_ E = (*countenvelope.T)(nil)
)

// ParseMessage identifies the label of a message array, allocates the
// matching envelope type and unmarshals the message into it.
func ParseMessage(message []byte) (env E, err error) {
	var match string
	if match, err = sentinel.Identify(message); chk.T(err) {
		return
	}
	switch match {
	case labels.EVENT:
		env = &eventenvelope.T{}
	case labels.REQ:
		env = &reqenvelope.T{}
	case labels.EOSE:
		env = &eoseenvelope.T{}
	case labels.NOTICE:
		env = &noticeenvelope.T{}
	case labels.OK:
		env = &okenvelope.T{}
	case labels.CLOSED:
		env = &closedenvelope.T{}
	case labels.CLOSE:
		env = &closeenvelope.T{}
	case labels.AUTH:
		env = &authenvelope.T{}
	case labels.COUNT:
		env = &countenvelope.T{}
	default:
		err = log.E.Err("unknown envelope label '%s'", match)
		return
	}
	if err = env.UnmarshalJSON(message); chk.D(err) {
		env = nil
		return
	}
	return
}
