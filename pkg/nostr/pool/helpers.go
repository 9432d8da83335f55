package pool

import (
	"sync"
	"time"

	"github.com/chebizarro/nostrc-go/pkg/nostr/normalize"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
	"github.com/fiatjaf/generic-ristretto/z"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/atomic"
	"golang.org/x/exp/slices"
)

const MAX_LOCKS = 50

var namedMutexPool = make([]sync.Mutex, MAX_LOCKS)

func namedLock(name string) (unlock func()) {
	idx := z.MemHashString(name) % MAX_LOCKS
	namedMutexPool[idx].Lock()
	return namedMutexPool[idx].Unlock
}

// normalizeURLs rewrites every URL into canonical form and drops duplicates
// and empties, so one relay dialed under two spellings only gets one
// subscription.
func normalizeURLs(urls []string) []string {
	normalized := make([]string, 0, len(urls))
	for _, url := range urls {
		if nm := normalize.URL(url); nm != "" {
			normalized = append(normalized, nm)
		}
	}
	slices.Sort(normalized)
	return slices.Compact(normalized)
}

// seenAlreadyDropAge is how long a seen event id is remembered for dedup.
const seenAlreadyDropAge = time.Minute

// seenTracker remembers recently seen event ids. Stale entries are swept on
// the access path instead of by a background ticker, at most once a second,
// so an idle tracker does no work at all.
type seenTracker struct {
	entries   *xsync.MapOf[string, timestamp.T]
	lastSweep atomic.Int64
}

func newSeenTracker() *seenTracker {
	return &seenTracker{entries: xsync.NewMapOf[timestamp.T]()}
}

// seen records id and reports whether it had already been recorded within
// the drop age.
func (s *seenTracker) seen(id string) bool {
	now := timestamp.Now()
	_, loaded := s.entries.LoadOrStore(id, now)
	s.maybeSweep(now)
	return loaded
}

func (s *seenTracker) maybeSweep(now timestamp.T) {
	last := s.lastSweep.Load()
	if int64(now)-last < 1 {
		return
	}
	if !s.lastSweep.CompareAndSwap(last, int64(now)) {
		// somebody else is sweeping
		return
	}
	old := timestamp.T(time.Now().Add(-seenAlreadyDropAge).Unix())
	s.entries.Range(func(id string, ts timestamp.T) bool {
		if ts < old {
			s.entries.Delete(id)
		}
		return true
	})
}
