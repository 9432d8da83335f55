// Package pool multiplexes queries over any number of relays: one call
// fans a REQ out to a set of relay URLs, merges the results with optional
// id dedup, and keeps redialing relays that drop until the caller's context
// ends.
package pool

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
	"github.com/chebizarro/nostrc-go/pkg/nostr/nip42"
	"github.com/chebizarro/nostrc-go/pkg/nostr/normalize"
	"github.com/chebizarro/nostrc-go/pkg/nostr/relay"
	"github.com/chebizarro/nostrc-go/pkg/nostr/timestamp"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/puzpuzpuz/xsync/v2"
)

var log, chk = slog.New(os.Stderr)

// SimplePool keeps one relay connection per normalized URL and fans
// subscriptions out over them.
type SimplePool struct {
	Relays  *xsync.MapOf[string, *relay.T]
	Context context.T

	cancel      context.F
	authHandler func(authEvent *event.T) error
	middleware  func(ie IncomingEvent)
	sigChecker  func(ev *event.T) bool
}

// IncomingEvent is an event merged off a pool subscription together with the
// relay it arrived from.
type IncomingEvent struct {
	*event.T
	Relay *relay.T
}

func (ie IncomingEvent) String() string {
	return fmt.Sprintf("[%s] >> %s", ie.Relay.URL, ie.T)
}

// PoolOption is the type of the arguments passed to NewSimplePool.
type PoolOption interface {
	IsPoolOption()
	Apply(*SimplePool)
}

// WithAuthHandler must be a function that signs the auth event when called.
// It will be called whenever any relay in the pool returns a `CLOSED`
// message with the "auth-required:" prefix, only once for each relay.
type WithAuthHandler func(authEvent *event.T) error

func (_ WithAuthHandler) IsPoolOption()          {}
func (h WithAuthHandler) Apply(pool *SimplePool) { pool.authHandler = h }

// WithEventMiddleware is called with every event accepted into the merged
// stream, before the consumer sees it.
type WithEventMiddleware func(ie IncomingEvent)

func (_ WithEventMiddleware) IsPoolOption()          {}
func (m WithEventMiddleware) Apply(pool *SimplePool) { pool.middleware = m }

// WithSignatureChecker replaces the per-relay signature verification with a
// pool level policy: relays opened by the pool are marked AssumeValid and
// every merged event is passed to the checker instead, dropped when it
// returns false.
type WithSignatureChecker func(ev *event.T) bool

func (_ WithSignatureChecker) IsPoolOption()          {}
func (s WithSignatureChecker) Apply(pool *SimplePool) { pool.sigChecker = s }

var (
	_ PoolOption = (WithAuthHandler)(nil)
	_ PoolOption = (WithEventMiddleware)(nil)
	_ PoolOption = (WithSignatureChecker)(nil)
)

// NewSimplePool returns a pool whose relays live until c ends.
func NewSimplePool(c context.T, opts ...PoolOption) *SimplePool {
	c, cancel := context.Cancel(c)
	pool := &SimplePool{
		Relays:  xsync.NewMapOf[*relay.T](),
		Context: c,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt.Apply(pool)
	}
	return pool
}

// EnsureRelay returns the pool's connection to url, dialing first when there
// is none or the old one died. Concurrent calls for the same URL are
// serialized by a named lock so only one dial happens.
func (pool *SimplePool) EnsureRelay(url string) (*relay.T, error) {
	nm := normalize.URL(url)

	defer namedLock(nm)()

	rl, ok := pool.Relays.Load(nm)
	if ok && rl.IsConnected() {
		// already connected, unlock and return
		return rl, nil
	}
	// the relay lives on the pool context so when the pool dies everything
	// dies
	rl = relay.New(pool.Context, nm)
	if pool.sigChecker != nil {
		rl.AssumeValid = true
	}
	c, cancel := context.Timeout(pool.Context, 15*time.Second)
	defer cancel()
	if err := rl.Connect(c); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	pool.Relays.Store(nm, rl)
	return rl, nil
}

// Sub opens a subscription with a single filter to multiple relays and
// merges the results, dropping duplicate ids.
func (pool *SimplePool) Sub(c context.T, urls []string,
	f *filter.T) chan IncomingEvent {

	return pool.subMany(c, urls, filters.T{f}, true)
}

// SubMany opens a subscription with the given filters to multiple relays and
// merges the results, dropping duplicate ids. The subscriptions only end
// when the context is canceled.
func (pool *SimplePool) SubMany(c context.T, urls []string,
	ff filters.T) chan IncomingEvent {

	return pool.subMany(c, urls, ff, true)
}

// SubManyNonUnique is like SubMany, but returns duplicate events if they
// come from different relays.
func (pool *SimplePool) SubManyNonUnique(c context.T, urls []string,
	ff filters.T) chan IncomingEvent {

	return pool.subMany(c, urls, ff, false)
}

func (pool *SimplePool) subMany(c context.T, urls []string, ff filters.T,
	unique bool) chan IncomingEvent {

	c, cancel := context.Cancel(c)
	events := make(chan IncomingEvent)
	seen := newSeenTracker()
	urls = normalizeURLs(urls)

	pending := xsync.NewCounter()
	pending.Add(int64(len(urls)))
	for _, url := range urls {
		go func(nm string) {
			defer func() {
				pending.Dec()
				if pending.Value() == 0 {
					close(events)
				}
				cancel()
			}()

			// each relay goroutine owns a copy of the filters because the
			// since timestamps get rewritten on reconnect
			ff := ff.Clone()

			hasAuthed := false
			interval := 3 * time.Second
			for {
				select {
				case <-c.Done():
					return
				default:
				}

				var sub *relay.Subscription
				var err error
				var rl *relay.T
				if rl, err = pool.EnsureRelay(nm); err != nil {
					goto reconnect
				}
				hasAuthed = false

			subscribe:
				if sub, err = rl.Subscribe(c, ff); err != nil {
					goto reconnect
				}

				// reset interval when we get a good subscription
				interval = 3 * time.Second

				for {
					select {
					case evt, more := <-sub.Events:
						if !more {
							// the connection was closed under us, so update
							// the filters to ask only for events newer than
							// what we already saw and redial until it works
							now := timestamp.Now().Ptr()
							for i := range ff {
								ff[i].Since = now
							}
							goto reconnect
						}
						if !pool.forward(c, events, rl, evt, seen, unique) {
							return
						}
					case reason := <-sub.ClosedReason:
						if pool.retryWithAuth(c, rl, reason, &hasAuthed) {
							goto subscribe
						}
						log.D.F("CLOSED from %s: '%s'", nm, reason)
						return
					case <-c.Done():
						return
					}
				}

			reconnect:
				// go back to the beginning of the loop and redial, waiting
				// longer each time it fails
				select {
				case <-c.Done():
					return
				case <-time.After(interval):
				}
				interval = interval * 17 / 10
			}
		}(url)
	}

	return events
}

// SubManyEose is like SubMany, but it stops the subscriptions and closes the
// channel once every relay has sent an EOSE.
func (pool *SimplePool) SubManyEose(c context.T, urls []string,
	ff filters.T) chan IncomingEvent {

	return pool.subManyEose(c, urls, ff, true)
}

// SubManyEoseNonUnique is like SubManyEose, but returns duplicate events if
// they come from different relays.
func (pool *SimplePool) SubManyEoseNonUnique(c context.T, urls []string,
	ff filters.T) chan IncomingEvent {

	return pool.subManyEose(c, urls, ff, false)
}

func (pool *SimplePool) subManyEose(c context.T, urls []string, ff filters.T,
	unique bool) chan IncomingEvent {

	c, cancel := context.Cancel(c)
	events := make(chan IncomingEvent)
	seen := newSeenTracker()
	urls = normalizeURLs(urls)
	pending := xsync.NewCounter()
	pending.Add(int64(len(urls)))

	for _, url := range urls {
		go func(nm string) {
			defer func() {
				pending.Dec()
				if pending.Value() == 0 {
					// every subscription got an eose or died
					cancel()
					close(events)
				}
			}()

			rl, err := pool.EnsureRelay(nm)
			if err != nil {
				return
			}

			hasAuthed := false
			var sub *relay.Subscription

		subscribe:
			if sub, err = rl.Subscribe(c, ff); err != nil {
				log.D.F("error subscribing to %s with %v: %v", nm, ff, err)
				return
			}

			for {
				select {
				case <-c.Done():
					return
				case <-sub.EndOfStoredEvents:
					// stored events delivered just ahead of the eose token
					// may still sit in the subscription buffer
					for {
						select {
						case evt, more := <-sub.Events:
							if !more {
								return
							}
							if !pool.forward(c, events, rl, evt, seen,
								unique) {
								return
							}
						default:
							return
						}
					}
				case reason := <-sub.ClosedReason:
					if pool.retryWithAuth(c, rl, reason, &hasAuthed) {
						goto subscribe
					}
					log.D.F("CLOSED from %s: '%s'", nm, reason)
					return
				case evt, more := <-sub.Events:
					if !more {
						return
					}
					if !pool.forward(c, events, rl, evt, seen, unique) {
						return
					}
				}
			}
		}(url)
	}

	return events
}

// QuerySingle returns the first event returned by any relay, cancelling
// everything else, or nil when every relay reached EOSE without a match.
func (pool *SimplePool) QuerySingle(c context.T, urls []string,
	f *filter.T) *IncomingEvent {

	c, cancel := context.Cancel(c)
	defer cancel()
	for ievt := range pool.SubManyEose(c, urls, filters.T{f}) {
		return &ievt
	}
	return nil
}

// accept applies the dedup set and the signature policy to one event.
func (pool *SimplePool) accept(evt *event.T, seen *seenTracker,
	unique bool) bool {

	if unique && seen.seen(evt.ID.String()) {
		return false
	}
	if pool.sigChecker != nil && !pool.sigChecker(evt) {
		log.D.F("event %s rejected by signature policy", evt.ID)
		return false
	}
	return true
}

// forward pushes one accepted event into the merged channel, reporting false
// when the context ended before the consumer took it.
func (pool *SimplePool) forward(c context.T, events chan IncomingEvent,
	rl *relay.T, evt *event.T, seen *seenTracker, unique bool) bool {

	if !pool.accept(evt, seen, unique) {
		return true
	}
	ie := IncomingEvent{T: evt, Relay: rl}
	if pool.middleware != nil {
		pool.middleware(ie)
	}
	select {
	case events <- ie:
		return true
	case <-c.Done():
		return false
	}
}

// retryWithAuth reacts to an auth-required CLOSED by signing the relay's
// challenge through the pool's auth handler, once per relay session.
func (pool *SimplePool) retryWithAuth(c context.T, rl *relay.T,
	reason string, hasAuthed *bool) bool {

	if !strings.HasPrefix(reason, nip42.AuthRequired+":") ||
		pool.authHandler == nil || *hasAuthed {
		return false
	}
	authEvent := nip42.CreateUnsignedAuthEvent(rl.Challenge(), "", rl.URL)
	if err := pool.authHandler(&authEvent); chk.D(err) {
		return false
	}
	if _, err := rl.Auth(c, &authEvent); chk.D(err) {
		return false
	}
	*hasAuthed = true // so we don't keep doing AUTH again and again
	return true
}
