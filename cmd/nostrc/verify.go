package main

import (
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/urfave/cli/v2"
)

var verify = &cli.Command{
	Name:  "verify",
	Usage: "checks the hash and signature of an event given through stdin",
	Description: `outputs nothing if the event is valid, otherwise prints the reason and exits with a non-zero code.

example:
		echo '{"content":"hello",...}' | nostrc verify`,
	ArgsUsage: "[event-json]",
	Action: func(c *cli.Context) error {
		for stdinEvent := range getStdinLinesOrFirstArgument(c) {
			if stdinEvent == "" {
				continue
			}
			evt := &event.T{}
			if err := evt.UnmarshalJSON([]byte(stdinEvent)); err != nil {
				lineProcessingError(c, "invalid event: %s", err)
				continue
			}
			if evt.GetID() != evt.ID {
				lineProcessingError(c, "invalid .id, expected %s, got %s",
					evt.GetID(), evt.ID)
				continue
			}
			if ok, err := evt.CheckSignature(); err != nil {
				lineProcessingError(c, "signature verification failed: %s",
					err)
				continue
			} else if !ok {
				lineProcessingError(c, "invalid signature")
				continue
			}
		}

		exitIfLineProcessingError(c)
		return nil
	},
}
