package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/eventenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/keys"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/nip42"
	"github.com/chebizarro/nostrc-go/pkg/nostr/relay"
	"github.com/chebizarro/nostrc-go/pkg/nostr/signer/nip5f"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tag"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tags"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
	"github.com/urfave/cli/v2"
)

const CategoryEventFields = "EVENT FIELDS"

var generateEvent = &cli.Command{
	Name:  "event",
	Usage: "generates an encoded event and either prints it or sends it to a set of relays",
	Description: `outputs an event built with the flags. if one or more relays are given as arguments, an attempt is also made to publish the event to these relays.

example:
		nostrc event -c hello --sec <key> wss://nos.lol
		nostrc event -k 3 -c '{"wss://nos.lol":{"read":true,"write":true}}' wss://nostr.wine

it can also take an event from stdin, optionally modify it with flags and sign or publish it.

example:
		echo '{"content":"hello"}' | nostrc event --sec <key> wss://nos.lol`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:     "kind",
			Aliases:  []string{"k"},
			Usage:    "event kind",
			Category: CategoryEventFields,
		},
		&cli.StringFlag{
			Name:     "content",
			Aliases:  []string{"c"},
			Usage:    "event content",
			Category: CategoryEventFields,
		},
		&cli.StringSliceFlag{
			Name:     "tag",
			Aliases:  []string{"t"},
			Usage:    "takes a tag like -t e=<id>, adds it to the event",
			Category: CategoryEventFields,
		},
		&cli.StringSliceFlag{
			Name:     "e",
			Usage:    "shortcut for --tag e=<value>",
			Category: CategoryEventFields,
		},
		&cli.StringSliceFlag{
			Name:     "p",
			Usage:    "shortcut for --tag p=<value>",
			Category: CategoryEventFields,
		},
		&cli.StringSliceFlag{
			Name:     "d",
			Usage:    "shortcut for --tag d=<value>",
			Category: CategoryEventFields,
		},
		&cli.StringFlag{
			Name:     "created-at",
			Aliases:  []string{"time"},
			Usage:    "unix timestamp value for the created_at field",
			Category: CategoryEventFields,
		},
		&cli.StringFlag{
			Name:        "sec",
			Usage:       "secret key to sign the event, as hex or nsec",
			DefaultText: "the key '1'",
			Value:       "0000000000000000000000000000000000000000000000000000000000000001",
			EnvVars:     []string{"NOSTR_SECRET_KEY"},
		},
		&cli.BoolFlag{
			Name:  "signer",
			Usage: "sign with the local signer daemon instead of --sec",
		},
		&cli.StringFlag{
			Name:  "signer-endpoint",
			Usage: "signer daemon endpoint, a socket path or tcp:<host>:<port> (implies --signer)",
		},
		&cli.BoolFlag{
			Name:  "envelope",
			Usage: "print the event enveloped in a [\"EVENT\", ...] array",
		},
		&cli.BoolFlag{
			Name:  "auth",
			Usage: "always perform NIP-42 \"AUTH\" when facing an \"auth-required: \" rejection and try again",
		},
	},
	ArgsUsage: "[relay...]",
	Action: func(c *cli.Context) error {
		relayUrls := c.Args().Slice()
		if err := validateRelayURLs(relayUrls); err != nil {
			return err
		}
		var relays []*relay.T
		for _, url := range relayUrls {
			log.I.F("connecting to %s... ", url)
			if rl, err := relay.RelayConnect(c.Context, url); err == nil {
				relays = append(relays, rl)
				log.I.F("ok.")
			} else {
				log.E.F(err.Error())
			}
		}
		if len(relayUrls) > 0 && len(relays) == 0 {
			return fmt.Errorf("failed to connect to any of the given relays")
		}
		defer func() {
			for _, rl := range relays {
				rl.Close()
			}
		}()

		useSigner := c.Bool("signer") || c.IsSet("signer-endpoint")
		var signer *nip5f.Client
		if useSigner {
			var err error
			if signer, err = nip5f.Connect(c.Context,
				c.String("signer-endpoint")); err != nil {
				return err
			}
			defer signer.Close()
		}

		for stdinEvent := range getStdinLinesOrBlank() {
			evt := &event.T{Tags: tags.T{}}
			if stdinEvent != "" {
				if err := evt.UnmarshalJSON([]byte(stdinEvent)); err != nil {
					lineProcessingError(c,
						"invalid event '%s' received from stdin: %s",
						stdinEvent, err)
					continue
				}
			}

			if c.IsSet("kind") {
				evt.Kind = kind.T(c.Int("kind"))
			} else if stdinEvent == "" {
				evt.Kind = kind.TextNote
			}
			if c.IsSet("content") {
				evt.Content = c.String("content")
			} else if stdinEvent == "" && evt.Content == "" {
				evt.Content = "hello from nostrc"
			}
			for _, tagFlag := range c.StringSlice("tag") {
				spl := strings.Split(tagFlag, "=")
				if len(spl) == 2 && len(spl[0]) >= 1 {
					evt.Tags = append(evt.Tags, tag.T(spl))
				} else {
					return fmt.Errorf("invalid --tag '%s'", tagFlag)
				}
			}
			for _, etag := range c.StringSlice("e") {
				evt.Tags = append(evt.Tags, tag.T{"e", etag})
			}
			for _, ptag := range c.StringSlice("p") {
				evt.Tags = append(evt.Tags, tag.T{"p", ptag})
			}
			for _, dtag := range c.StringSlice("d") {
				evt.Tags = append(evt.Tags, tag.T{"d", dtag})
			}
			if createdAt := c.String("created-at"); createdAt != "" {
				if createdAt == "now" {
					evt.CreatedAt = timestamp.Now()
				} else if i, err := strconv.Atoi(createdAt); err == nil {
					evt.CreatedAt = timestamp.T(i)
				} else {
					return fmt.Errorf(
						"parse error: Invalid numeric literal %q", createdAt)
				}
			}

			if useSigner {
				signed, err := signer.SignEvent(c.Context, evt, "")
				if err != nil {
					lineProcessingError(c, "signer refused the event: %s", err)
					continue
				}
				evt = signed
			} else {
				sec, err := gatherSecretKeyFromArguments(c)
				if err != nil {
					return err
				}
				if err = evt.Sign(sec); err != nil {
					return fmt.Errorf("error signing event: %w", err)
				}
			}

			if c.Bool("envelope") {
				b, err := (&eventenvelope.T{Event: evt}).MarshalJSON()
				if chk.D(err) {
					return err
				}
				fmt.Println(string(b))
			} else {
				fmt.Println(evt)
			}

			for _, rl := range relays {
				status, err := rl.Publish(c.Context, evt)
				if err != nil &&
					strings.HasPrefix(err.Error(), "msg: auth-required:") &&
					c.Bool("auth") {

					if err = authToRelay(c, rl); err != nil {
						log.E.F("auth to %s failed: %s", rl.URL, err)
						continue
					}
					status, err = rl.Publish(c.Context, evt)
				}
				if err != nil {
					log.E.F("failed to publish to %s: %s", rl.URL, err)
					continue
				}
				log.I.F("published to %s: %s", rl.URL, status)
			}
		}

		exitIfLineProcessingError(c)
		return nil
	},
}

// authToRelay answers the relay's most recent NIP-42 challenge with an
// event signed by the --sec key.
func authToRelay(c *cli.Context, rl *relay.T) (err error) {
	challenge := rl.Challenge()
	if challenge == "" {
		return fmt.Errorf("relay sent no auth challenge")
	}
	var sec string
	if sec, err = gatherSecretKeyFromArguments(c); err != nil {
		return
	}
	pk, _ := keys.GetPublicKey(sec)
	authEvent := nip42.CreateUnsignedAuthEvent(challenge, pk, rl.URL)
	if err = authEvent.Sign(sec); err != nil {
		return
	}
	log.I.F("performing auth as %s...", pk)
	_, err = rl.Auth(c.Context, &authEvent)
	return
}
