package main

import (
	"os"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/interrupt"
	"github.com/chebizarro/nostrc-go/pkg/nostr/bech32encoding"
	"github.com/chebizarro/nostrc-go/pkg/nostr/signer/nip5f"
	"github.com/chebizarro/nostrc-go/pkg/qu"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/gofrs/flock"
)

var log, chk = slog.New(os.Stderr)

type config struct {
	Socket string `arg:"-s,--socket" help:"unix socket path to listen on" placeholder:"PATH"`
	TCP    string `arg:"-t,--tcp" help:"also listen on loopback tcp" placeholder:"HOST:PORT"`
	Key    string `arg:"-k,--key" help:"secret key as 64 hex digits or nsec (overrides the environment)" placeholder:"KEY"`
}

func (config) Description() string {
	return `signerd holds a nostr secret key and signs events for local clients.

the key is taken from --key or the first of NOSTR_SIGNER_KEY,
NOSTR_SIGNER_SECKEY_HEX and NOSTR_SIGNER_NSEC found in the environment.`
}

func (config) Version() string { return "signerd v0.1.0" }

var args config

func main() {
	arg.MustParse(&args)
	os.Exit(run())
}

func run() int {
	var signer *nip5f.KeySigner
	var err error
	if args.Key != "" {
		signer, err = nip5f.NewKeySigner(args.Key)
	} else {
		signer, err = nip5f.EnvSigner()
	}
	if chk.E(err) {
		return 1
	}
	defer signer.Close()

	sockPath := args.Socket
	if sockPath == "" {
		sockPath = nip5f.SocketPath()
	}

	// one daemon per socket directory
	lockPath := filepath.Join(filepath.Dir(sockPath), "signerd.lock")
	if err = os.MkdirAll(filepath.Dir(lockPath), 0700); chk.E(err) {
		return 1
	}
	fl := flock.New(lockPath)
	var locked bool
	if locked, err = fl.TryLock(); chk.E(err) {
		return 1
	}
	if !locked {
		log.E.F("another signerd already holds %s", lockPath)
		return 1
	}
	defer fl.Unlock()

	endpoints := []string{sockPath}
	if args.TCP != "" {
		endpoints = append(endpoints, "tcp:"+args.TCP)
	}

	c, cancel := context.Cancel(context.Bg())
	defer cancel()
	var servers []*nip5f.Server
	for _, endpoint := range endpoints {
		srv := nip5f.NewServer(c, signer)
		if err = srv.Listen(endpoint); chk.E(err) {
			for _, s := range servers {
				s.Close()
			}
			return 1
		}
		servers = append(servers, srv)
	}

	pub, _ := signer.GetPublicKey()
	npub, _ := bech32encoding.HexToNpub(pub)
	log.I.F("signing as %s", npub)

	quit := qu.T()
	interrupt.AddHandler(func() {
		log.I.Ln("shutting down")
		for _, s := range servers {
			s.Close()
		}
		quit.Q()
	})

	errs := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() { errs <- srv.Serve() }()
	}

	select {
	case err = <-errs:
		if chk.E(err) {
			for _, s := range servers {
				s.Close()
			}
			return 1
		}
	case <-quit.Wait():
	}
	return 0
}
