package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chebizarro/nostrc-go/pkg/hex"
	"github.com/chebizarro/nostrc-go/pkg/nostr/bech32encoding"
	"github.com/chebizarro/nostrc-go/pkg/nostr/eventid"
	"github.com/chebizarro/nostrc-go/pkg/nostr/keys"
	"github.com/chebizarro/nostrc-go/pkg/nostr/pointers"
	"github.com/urfave/cli/v2"
)

var decode = &cli.Command{
	Name:  "decode",
	Usage: "decodes nip19 or hex entities",
	Description: `example usage:
		nostrc decode npub1uescmd5krhrmj9rcura833xpke5eqzvcz5nxjw74ufeewf2sscxq4g7chm
		nostrc decode nevent1qqs29yet5tp0qq5xu5qgkeehkzqh5qu46739axzezcxpj4tjlkx9j7gpr4mhxue69uhkummnw3ez6ur4vgh8wetvd3hhyer9wghxuet5sh59ud
		nostrc decode nsec1jrmyhtjhgd9yqalps8hf9mayvd58852gtz66m7tqpacjedkp6kxq4dyxsr`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "id",
			Aliases: []string{"e"},
			Usage:   "return just the event id, if applicable",
		},
		&cli.BoolFlag{
			Name:    "pubkey",
			Aliases: []string{"p"},
			Usage:   "return just the pubkey, if applicable",
		},
	},
	ArgsUsage: "<npub | nsec | note | nevent | nprofile | naddr | hex>",
	Action: func(c *cli.Context) error {
		for input := range getStdinLinesOrFirstArgument(c) {
			if input == "" {
				continue
			}
			input = strings.TrimPrefix(input, "nostr:")

			var result decodeResult
			if b, err := hex.Dec(input); err == nil && len(input)%2 == 0 {
				switch len(b) {
				case 64:
					result.Hex.PossibleTypes = []string{"sig"}
					result.Hex.Signature = hex.Enc(b)
				case 32:
					result.Hex.PossibleTypes =
						[]string{"pubkey", "private_key", "event_id"}
					result.Hex.ID = hex.Enc(b)
					result.Hex.PrivateKey = hex.Enc(b)
					result.Hex.PublicKey = hex.Enc(b)
				default:
					lineProcessingError(c,
						"hex string with invalid number of bytes: %d", len(b))
					continue
				}
			} else {
				prefix, value, err := bech32encoding.Decode(input)
				if err != nil {
					lineProcessingError(c, "couldn't decode input '%s': %s",
						input, err)
					continue
				}
				switch prefix {
				case bech32encoding.NpubHRP:
					result.PublicKey = value.(string)
				case bech32encoding.NoteHRP:
					result.Event = &pointers.Event{
						ID: eventid.T(value.(string)),
					}
				case bech32encoding.NsecHRP:
					result.SecretKey.PrivateKey = value.(string)
					result.SecretKey.PublicKey, _ =
						keys.GetPublicKey(value.(string))
				case bech32encoding.NprofileHRP:
					pp := value.(pointers.Profile)
					result.Profile = &pp
				case bech32encoding.NeventHRP:
					ep := value.(pointers.Event)
					result.Event = &ep
				case bech32encoding.NentityHRP:
					np := value.(pointers.Entity)
					result.Entity = &np
				default:
					lineProcessingError(c, "unknown prefix '%s'", prefix)
					continue
				}
			}

			if c.Bool("id") {
				if result.Event == nil {
					lineProcessingError(c, "input '%s' has no event id", input)
					continue
				}
				fmt.Println(result.Event.ID)
				continue
			}
			if c.Bool("pubkey") {
				pk := result.pubkey()
				if pk == "" {
					lineProcessingError(c, "input '%s' has no pubkey", input)
					continue
				}
				fmt.Println(pk)
				continue
			}
			fmt.Println(result.JSON())
		}

		exitIfLineProcessingError(c)
		return nil
	},
}

type decodeResult struct {
	Event     *pointers.Event
	Profile   *pointers.Profile
	Entity    *pointers.Entity
	PublicKey string
	Hex       struct {
		PossibleTypes []string `json:"possible_types"`
		PublicKey     string   `json:"pubkey,omitempty"`
		ID            string   `json:"event_id,omitempty"`
		PrivateKey    string   `json:"private_key,omitempty"`
		Signature     string   `json:"sig,omitempty"`
	}
	SecretKey struct {
		PrivateKey string `json:"private_key"`
		PublicKey  string `json:"pubkey,omitempty"`
	}
}

func (d decodeResult) pubkey() string {
	switch {
	case d.PublicKey != "":
		return d.PublicKey
	case d.Profile != nil:
		return d.Profile.PublicKey
	case d.Entity != nil:
		return d.Entity.PublicKey
	case d.Event != nil:
		return d.Event.Author
	case d.SecretKey.PublicKey != "":
		return d.SecretKey.PublicKey
	}
	return ""
}

func (d decodeResult) JSON() string {
	var j []byte
	switch {
	case d.Event != nil:
		j, _ = json.MarshalIndent(d.Event, "", "  ")
	case d.Profile != nil:
		j, _ = json.MarshalIndent(d.Profile, "", "  ")
	case d.Entity != nil:
		j, _ = json.MarshalIndent(d.Entity, "", "  ")
	case d.PublicKey != "":
		j, _ = json.MarshalIndent(struct {
			PublicKey string `json:"pubkey"`
		}{d.PublicKey}, "", "  ")
	case len(d.Hex.PossibleTypes) > 0:
		j, _ = json.MarshalIndent(d.Hex, "", "  ")
	case d.SecretKey.PrivateKey != "":
		j, _ = json.MarshalIndent(d.SecretKey, "", "  ")
	}
	return string(j)
}
