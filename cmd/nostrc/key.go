package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chebizarro/nostrc-go/pkg/nostr/bech32encoding"
	"github.com/chebizarro/nostrc-go/pkg/nostr/keys"
	"github.com/mdp/qrterminal/v3"
	"github.com/urfave/cli/v2"
)

var key = &cli.Command{
	Name:  "key",
	Usage: "operations on secret and public keys",
	Subcommands: []*cli.Command{
		keyGenerate,
		keyPublic,
	},
}

var keyGenerate = &cli.Command{
	Name:  "generate",
	Usage: "generates a fresh secret key",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "nsec",
			Usage: "print the key bech32 encoded instead of hex",
		},
	},
	Action: func(c *cli.Context) error {
		sec := keys.GeneratePrivateKey()
		if c.Bool("nsec") {
			nsec, err := bech32encoding.HexToNsec(sec)
			if err != nil {
				return err
			}
			fmt.Println(nsec)
		} else {
			fmt.Println(sec)
		}
		pub, _ := keys.GetPublicKey(sec)
		npub, _ := bech32encoding.HexToNpub(pub)
		log.I.F("the associated public key is %s (%s)", pub, npub)
		return nil
	},
}

var keyPublic = &cli.Command{
	Name:  "public",
	Usage: "derives the public key of a secret key given through stdin or as an argument",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "npub",
			Usage: "print the key bech32 encoded instead of hex",
		},
		&cli.BoolFlag{
			Name:  "qr",
			Usage: "also print the npub as a QR code on the terminal",
		},
	},
	ArgsUsage: "[secret-key]",
	Action: func(c *cli.Context) error {
		for sec := range getStdinLinesOrFirstArgument(c) {
			if sec == "" {
				continue
			}
			if strings.HasPrefix(sec, "nsec1") {
				var err error
				if _, sec, err = bech32encoding.DecodeToString(sec); err != nil {
					lineProcessingError(c, "invalid nsec: %s", err)
					continue
				}
			}
			if !keys.IsValid32ByteHex(sec) {
				lineProcessingError(c, "invalid secret key '%s'", sec)
				continue
			}
			pub, err := keys.GetPublicKey(sec)
			if err != nil {
				lineProcessingError(c, "failed to derive public key: %s", err)
				continue
			}
			npub, err := bech32encoding.HexToNpub(pub)
			if err != nil {
				lineProcessingError(c, "failed to encode npub: %s", err)
				continue
			}
			if c.Bool("npub") {
				fmt.Println(npub)
			} else {
				fmt.Println(pub)
			}
			if c.Bool("qr") {
				config := qrterminal.Config{
					HalfBlocks: false,
					Level:      qrterminal.L,
					Writer:     os.Stdout,
					WhiteChar:  qrterminal.WHITE,
					BlackChar:  qrterminal.BLACK,
					QuietZone:  2,
				}
				qrterminal.GenerateWithConfig("nostr:"+npub, config)
			}
		}

		exitIfLineProcessingError(c)
		return nil
	},
}
