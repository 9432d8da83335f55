// Package sentinel classifies inbound message arrays by their first element
// without parsing the rest of the buffer.
package sentinel

import (
	"os"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/chebizarro/nostrc-go/pkg/wire/text"
)

var log, chk = slog.New(os.Stderr)

// Identify scans a byte slice as a message array and returns the label found
// as its first element. Only the first quoted token after the opening bracket
// is examined, and it must match a known label exactly. Substring matching
// would confuse CLOSE with CLOSED.
func Identify(b []byte) (match string, err error) {
	// The bytes must be valid JSON but we can't assume they are free of
	// whitespace, so scan rather than index.
	buf := text.NewBuffer(b)
	// First there must be an opening bracket.
	if err = buf.ScanThrough('['); chk.T(err) {
		return
	}
	// Then a quote.
	if err = buf.ScanThrough('"'); chk.T(err) {
		return
	}
	var candidate []byte
	if candidate, err = buf.ReadUntil('"'); chk.T(err) {
		return
	}
	if len(candidate) == 0 {
		err = log.E.Err("cannot read envelope without a label\n%s", string(b))
		return
	}
	var differs bool
matched:
	for i := range labels.List {
		differs = false
		if len(candidate) == len(labels.List[i]) {
			for j := range candidate {
				if candidate[j] != labels.List[i][j] {
					differs = true
					break
				}
			}
			if !differs {
				// there can only be one!
				match = string(labels.List[i])
				break matched
			}
		}
	}
	if match == "" {
		err = log.E.Err("label '%s' not recognised as envelope label",
			string(candidate))
		return
	}
	return
}
