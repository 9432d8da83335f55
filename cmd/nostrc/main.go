package main

import (
	"fmt"
	"os"

	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/urfave/cli/v2"
)

var log, chk = slog.New(os.Stderr)

var app = &cli.App{
	Name:  "nostrc",
	Usage: "talk to nostr relays and signers from the command line",
	Commands: []*cli.Command{
		req,
		generateEvent,
		decode,
		verify,
		key,
	},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "silent",
			Usage:   "do not print logs and info messages to stderr",
			Aliases: []string{"s"},
			Action: func(ctx *cli.Context, b bool) error {
				if b {
					slog.SetLogLevel(slog.Off)
				}
				return nil
			},
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
