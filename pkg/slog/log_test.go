package slog_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/chebizarro/nostrc-go/pkg/slog"
)

var log, chk = slog.New(os.Stdout)

func TestGetLogger(t *testing.T) {
	slog.SetLogLevel(slog.Trace)
	log.T.Ln("testing log level", slog.LevelSpecs[slog.Trace].Name)
	log.D.Ln("testing log level", slog.LevelSpecs[slog.Debug].Name)
	log.I.Ln("testing log level", slog.LevelSpecs[slog.Info].Name)
	log.W.Ln("testing log level", slog.LevelSpecs[slog.Warn].Name)
	log.E.F("testing log level %s", slog.LevelSpecs[slog.Error].Name)
	log.F.Ln("testing log level", slog.LevelSpecs[slog.Fatal].Name)
	chk.F(errors.New("dummy error as fatal"))
	chk.E(errors.New("dummy error as error"))
	chk.W(errors.New("dummy error as warning"))
	chk.I(errors.New("dummy error as info"))
	chk.D(errors.New("dummy error as debug"))
	chk.T(errors.New("dummy error as trace"))
	log.I.Ln("log.I.Err",
		log.I.Err("format string %d '%s'", 5, "testing") != nil)
	log.I.Chk(errors.New("dummy information check"))
	log.I.Chk(nil)
	log.I.S("`backtick wrapped string`", t)
	slog.SetLogLevel(slog.Info)
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l, c := slog.New(&buf)
	prev := slog.GetLogLevel()
	defer slog.SetLogLevel(prev)
	slog.SetLogLevel(slog.Warn)
	l.D.Ln("should not appear")
	l.I.F("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below level, got %q", buf.String())
	}
	l.W.Ln("warning shows")
	if !strings.Contains(buf.String(), "warning shows") {
		t.Fatalf("expected warning output, got %q", buf.String())
	}
	// Chk still reports truth even when silenced.
	if !c.D(errors.New("silent but true")) {
		t.Fatal("Chk must return true for non-nil error regardless of level")
	}
	if c.E(nil) {
		t.Fatal("Chk must return false for nil error")
	}
}
