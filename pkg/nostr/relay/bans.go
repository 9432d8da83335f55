package relay

import (
	"sync"
	"time"
)

// Ban policy defaults: a pubkey producing banThreshold invalid signatures
// within banWindow is dropped at ingress for banDuration. The table is capped
// and evicts its oldest entry when full.
const (
	defaultBanThreshold = 10
	defaultBanWindow    = 60 * time.Second
	defaultBanDuration  = 300 * time.Second
	banTableCap         = 10000
)

type banEntry struct {
	fails       int
	windowStart time.Time
	bannedUntil time.Time
}

type banTable struct {
	mx        sync.Mutex
	entries   map[string]*banEntry
	threshold int
	window    time.Duration
	duration  time.Duration
}

func newBanTable(threshold int, window, duration time.Duration) *banTable {
	if threshold <= 0 {
		threshold = defaultBanThreshold
	}
	if window <= 0 {
		window = defaultBanWindow
	}
	if duration <= 0 {
		duration = defaultBanDuration
	}
	return &banTable{
		entries:   make(map[string]*banEntry),
		threshold: threshold,
		window:    window,
		duration:  duration,
	}
}

// banned reports whether the pubkey is currently banned. Expired entries are
// removed on the way.
func (b *banTable) banned(pubkey string) bool {
	now := time.Now()
	b.mx.Lock()
	defer b.mx.Unlock()
	e, ok := b.entries[pubkey]
	if !ok {
		return false
	}
	if !e.bannedUntil.IsZero() {
		if now.Before(e.bannedUntil) {
			return true
		}
		delete(b.entries, pubkey)
		return false
	}
	return false
}

// fail records one verification failure and reports whether the pubkey
// crossed the threshold into a ban.
func (b *banTable) fail(pubkey string) (nowBanned bool) {
	now := time.Now()
	b.mx.Lock()
	defer b.mx.Unlock()
	e, ok := b.entries[pubkey]
	if !ok || now.Sub(e.windowStart) > b.window {
		if !ok && len(b.entries) >= banTableCap {
			b.evictOldest()
		}
		e = &banEntry{windowStart: now}
		b.entries[pubkey] = e
	}
	e.fails++
	if e.fails >= b.threshold && e.bannedUntil.IsZero() {
		e.bannedUntil = now.Add(b.duration)
		return true
	}
	return false
}

// evictOldest removes the entry with the oldest window start. Called with the
// mutex held, on the rare path where the table is full.
func (b *banTable) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range b.entries {
		if oldestKey == "" || e.windowStart.Before(oldest) {
			oldestKey = k
			oldest = e.windowStart
		}
	}
	if oldestKey != "" {
		delete(b.entries, oldestKey)
	}
}
