// Package relay maintains a client connection to a single nostr relay: the
// websocket, the worker pools that parse and verify inbound EVENT frames, and
// the routing table that hands results to subscriptions. Writes are
// serialized through one writer goroutine, reads fan out through bounded
// channels so a slow consumer sheds load instead of stalling the socket.
package relay

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/nostr/connection"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/authenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/closedenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/countenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/eoseenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/eventenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/labels"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/noticeenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/okenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/sentinel"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/nip42"
	"github.com/chebizarro/nostrc-go/pkg/nostr/normalize"
	"github.com/chebizarro/nostrc-go/pkg/slog"
	"github.com/puzpuzpuz/xsync/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
	"lukechampine.com/frand"
)

var log, chk = slog.New(os.Stderr)

// ingestShedPercent is the event channel utilization above which repost and
// reaction kinds are dropped at ingress, before any parse cost.
const ingestShedPercent = 95

// T is a client connection to one relay. Create it with New and dial with
// Connect, or use RelayConnect for both at once.
type T struct {
	URL           string
	RequestHeader http.Header // e.g. for origin header
	Connection    *connection.C
	Subscriptions *xsync.MapOf[int64, *Subscription]
	Err           error
	// AssumeValid skips signature verification for events received from
	// this relay.
	AssumeValid bool

	ctx    context.T // lifetime of the relay, ended by Close
	cancel context.F

	challenges chan string // NIP-42 challenges
	notices    chan string // NIP-01 NOTICEs

	okCallbacks *xsync.MapOf[string, func(bool, string)]
	writeQueue  chan writeRequest

	serial    atomic.Int64
	state     atomic.Int32
	closed    atomic.Bool
	challenge atomic.String

	mx sync.Mutex // guards Connection and the worker start/stop handover
	wg sync.WaitGroup

	tun   Tunables
	stats *metrics
	bans  *banTable

	eventCh   chan inboundEvent
	controlCh chan []byte
	batchChs  []chan []inboundEvent
	verifyChs []chan parsedEvent
	resultCh  chan verifyResult

	reconnect     bool
	noticeHandler WithNoticeHandler
	authHandler   WithAuthHandler
	stateCB       WithStateCallback
}

type writeRequest struct {
	msg    []byte
	answer chan error
}

// inboundEvent is a raw EVENT frame bound for the worker pipeline. tracked
// means it arrived before the subscription's EOSE and counts toward the
// end-of-stored-events barrier.
type inboundEvent struct {
	raw     []byte
	sub     *Subscription
	tracked bool
}

type parsedEvent struct {
	ev      *event.T
	sub     *Subscription
	tracked bool
}

type verifyResult struct {
	pe    parsedEvent
	valid bool
	err   error
}

// New returns a new relay. The relay connection will be closed when the
// context is canceled.
func New(c context.T, url string, opts ...Option) (r *T) {
	c, cancel := context.Cancel(c)
	tun := LoadTunables()
	r = &T{
		URL:           normalize.URL(url),
		ctx:           c,
		cancel:        cancel,
		Subscriptions: xsync.NewIntegerMapOf[int64, *Subscription](),
		okCallbacks:   xsync.NewMapOf[func(bool, string)](),
		writeQueue:    make(chan writeRequest),
		tun:           tun,
		stats:         newMetrics(tun),
		eventCh:       make(chan inboundEvent, tun.EventChanSize),
		controlCh:     make(chan []byte, tun.ControlChanSize),
		resultCh:      make(chan verifyResult, tun.EventChanSize),
	}
	// one batch queue per worker and one verify queue per verifier: frames of
	// a subscription always take the same lane, which keeps them in wire
	// order end to end
	r.batchChs = make([]chan []inboundEvent, tun.WorkerPoolSize)
	for i := range r.batchChs {
		r.batchChs[i] = make(chan []inboundEvent, 1)
	}
	r.verifyChs = make([]chan parsedEvent, tun.VerifyPoolSize)
	for i := range r.verifyChs {
		r.verifyChs[i] = make(chan parsedEvent, tun.EventChanSize/tun.VerifyPoolSize)
	}
	var banPolicy WithBanPolicy
	for _, opt := range opts {
		switch o := opt.(type) {
		case WithNoticeHandler:
			r.noticeHandler = o
			r.notices = make(chan string)
			go func() {
				for {
					select {
					case n := <-r.notices:
						o(n)
					case <-r.ctx.Done():
						return
					}
				}
			}()
		case WithAuthHandler:
			r.authHandler = o
			r.challenges = make(chan string)
			go func() {
				for {
					var challenge string
					select {
					case challenge = <-r.challenges:
					case <-r.ctx.Done():
						return
					}
					authEvent := nip42.CreateUnsignedAuthEvent(challenge,
						"", r.URL)
					var err error
					var status Status
					if ok := o(r.ctx, &authEvent); ok {
						if status, err = r.Auth(r.ctx,
							&authEvent); chk.D(err) {
						}
						log.D.Ln(status.String())
					}
				}
			}()
		case WithReconnect:
			r.reconnect = bool(o)
		case WithStateCallback:
			r.stateCB = o
		case WithBanPolicy:
			banPolicy = o
		}
	}
	r.bans = newBanTable(banPolicy.Threshold, banPolicy.Window,
		banPolicy.Duration)
	// when the relay context ends take down whatever subscriptions remain
	go func() {
		<-r.ctx.Done()
		r.Subscriptions.Range(func(_ int64, sub *Subscription) bool {
			go sub.Unsub()
			return true
		})
	}()
	return r
}

// RelayConnect returns a relay object connected to url. Once successfully
// connected, cancelling ctx has no effect. To close the connection, call
// r.Close().
func RelayConnect(c context.T, url string, opts ...Option) (r *T, err error) {
	r = New(context.Bg(), url, opts...)
	err = r.Connect(c)
	return
}

// String just returns the relay URL.
func (r *T) String() string { return r.URL }

// Context retrieves the context that is associated with this relay
// connection.
func (r *T) Context() context.T { return r.ctx }

// State is the current lifecycle position of the connection.
func (r *T) State() State { return State(r.state.Load()) }

// IsConnected returns true if the connection to this relay seems to be
// active.
func (r *T) IsConnected() bool {
	return r.ctx.Err() == nil && !r.closed.Load() &&
		State(r.state.Load()) == StateConnected
}

// Challenge returns the most recent AUTH challenge received from the relay,
// or an empty string when none arrived yet.
func (r *T) Challenge() string { return r.challenge.Load() }

func (r *T) setState(s State) {
	r.state.Store(int32(s))
	if r.stateCB != nil {
		r.stateCB(s)
	}
}

// Connect tries to establish a websocket connection to r.URL. If the context
// expires before the connection is complete, an error is returned. Once
// successfully connected, context expiration has no effect: call r.Close to
// close the connection.
//
// The underlying relay connection will use a background context. If you want
// to pass a custom context to the underlying relay connection, use New() and
// then Relay.Connect().
func (r *T) Connect(c context.T) (err error) {
	if r.ctx == nil || r.Subscriptions == nil {
		return fmt.Errorf("relay must be initialized with a call to New()")
	}
	if r.URL == "" {
		return fmt.Errorf("invalid relay URL '%s'", r.URL)
	}
	if r.closed.Load() {
		return fmt.Errorf("relay connection closed")
	}
	if _, ok := c.Deadline(); !ok {
		// if no timeout is set, set it to 7 seconds
		var cancel context.F
		c, cancel = context.Timeout(c, 7*time.Second)
		defer cancel()
	}
	r.setState(StateConnecting)
	var conn *connection.C
	if conn, err = connection.New(c, r.URL, r.RequestHeader); chk.D(err) {
		r.setState(StateDisconnected)
		return fmt.Errorf("error opening websocket to '%s': %w", r.URL, err)
	}
	r.mx.Lock()
	if r.closed.Load() {
		r.mx.Unlock()
		chk.D(conn.Close())
		return fmt.Errorf("relay connection closed")
	}
	r.Connection = conn
	connCtx, connCancel := context.Cancel(r.ctx)
	workers := 1 // the writer
	if !r.tun.TestMode {
		workers += 3 + r.tun.WorkerPoolSize
		if !r.tun.SyncVerify {
			workers += r.tun.VerifyPoolSize + 1
		}
	}
	r.wg.Add(workers)
	r.mx.Unlock()
	r.setState(StateConnected)
	go r.writer(conn, connCtx, connCancel)
	if !r.tun.TestMode {
		go r.messageLoop(conn, connCtx, connCancel)
		go r.batchCollector(connCtx)
		go r.controlProcessor(connCtx)
		for i := 0; i < r.tun.WorkerPoolSize; i++ {
			go r.eventWorker(connCtx, i)
		}
		if !r.tun.SyncVerify {
			for i := 0; i < r.tun.VerifyPoolSize; i++ {
				go r.verifyWorker(connCtx, i)
			}
			go r.resultProcessor(connCtx)
		}
	}
	go r.supervise(connCtx)
	return nil
}

// writer owns the websocket write side: every frame leaves through here, and
// a ping every 29 seconds keeps the connection alive. On shutdown it writes
// what is already queued before exiting.
func (r *T) writer(conn *connection.C, connCtx context.T,
	connCancel context.F) {

	defer r.wg.Done()
	ticker := time.NewTicker(29 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case wr := <-r.writeQueue:
			r.stats.inc(r.stats.framesOut)
			if err := conn.WriteMessage(wr.msg); err != nil {
				wr.answer <- err
			}
			close(wr.answer)
		case <-ticker.C:
			if err := conn.Ping(); chk.D(err) {
				log.E.F("{%s} error writing ping: %v; closing websocket",
					r.URL, err)
				connCancel()
				return
			}
		case <-connCtx.Done():
			r.drainWrites(conn)
			return
		}
	}
}

// drainWrites answers the writers parked on the queue at shutdown.
func (r *T) drainWrites(conn *connection.C) {
	for {
		select {
		case wr := <-r.writeQueue:
			if err := conn.WriteMessage(wr.msg); err != nil {
				wr.answer <- err
			}
			close(wr.answer)
		default:
			return
		}
	}
}

// Write queues a message to be sent to the relay. The returned channel
// yields nil once the frame has been handed to the websocket, an error
// otherwise.
func (r *T) Write(msg []byte) <-chan error {
	ch := make(chan error, 1)
	if r.closed.Load() {
		ch <- fmt.Errorf("connection closed")
		return ch
	}
	select {
	case r.writeQueue <- writeRequest{msg: msg, answer: ch}:
	case <-r.ctx.Done():
		ch <- fmt.Errorf("connection closed")
	}
	return ch
}

// messageLoop reads frames off the websocket and classifies them by their
// label alone: EVENT frames go to the worker pipeline, everything else to the
// control processor. A frame that fails to classify is logged and skipped;
// only a read error ends the loop.
func (r *T) messageLoop(conn *connection.C, connCtx context.T,
	connCancel context.F) {

	defer r.wg.Done()
	defer connCancel()
	buf := new(bytes.Buffer)
	for {
		buf.Reset()
		if err := conn.ReadMessage(connCtx, buf); err != nil {
			if connCtx.Err() == nil && !r.closed.Load() {
				r.Err = err
				log.D.F("{%s} read error: %v", r.URL, err)
			}
			return
		}
		r.stats.inc(r.stats.framesIn)
		// the read buffer is reused, queued frames need their own copy
		message := make([]byte, buf.Len())
		copy(message, buf.Bytes())
		log.T.F("{%s} %v", r.URL, string(message))
		match, err := sentinel.Identify(message)
		if err != nil {
			log.D.F("{%s} unclassifiable frame: %v", r.URL, err)
			continue
		}
		if match == labels.EVENT {
			r.ingestEvent(message)
			continue
		}
		select {
		case r.controlCh <- message:
		case <-connCtx.Done():
			return
		}
	}
}

// ingestEvent routes a raw EVENT frame into the worker pipeline. Above
// ingestShedPercent utilization, repost and reaction kinds are dropped before
// any parse cost; when the channel is full the newest frame is dropped.
func (r *T) ingestEvent(message []byte) {
	id := gjson.GetBytes(message, "1")
	serial, ok := parseSubSerial(id.Str)
	if !ok {
		log.T.F("{%s} unroutable subscription id in %s", r.URL, string(message))
		return
	}
	sub, ok := r.Subscriptions.Load(serial)
	if !ok {
		log.D.F("{%s} no subscription with id '%s'", r.URL, id.Str)
		return
	}
	if len(r.eventCh)*100 >= ingestShedPercent*cap(r.eventCh) {
		k := kind.T(gjson.GetBytes(message, "2.kind").Int())
		if k == kind.Repost || k == kind.Reaction {
			r.stats.inc(r.stats.eventsDropped)
			return
		}
	}
	ie := inboundEvent{raw: message, sub: sub}
	if !sub.Eosed.Load() {
		sub.storedwg.Add(1)
		ie.tracked = true
	}
	select {
	case r.eventCh <- ie:
	default:
		sub.settle(ie.tracked)
		r.stats.inc(r.stats.eventsDropped)
	}
}

// batchCollector groups raw EVENT frames into per-worker batches, flushing a
// batch when it fills or when the batch window elapses. It blocks while idle,
// there is no polling. Lanes are picked by subscription serial so one
// subscription's frames never change worker.
func (r *T) batchCollector(connCtx context.T) {
	defer r.wg.Done()
	n := int64(len(r.batchChs))
	buckets := make([][]inboundEvent, n)
	var window *time.Timer
	var windowC <-chan time.Time
	flush := func(i int) bool {
		if len(buckets[i]) == 0 {
			return true
		}
		batch := buckets[i]
		buckets[i] = nil
		select {
		case r.batchChs[i] <- batch:
			return true
		case <-connCtx.Done():
			for _, ie := range batch {
				ie.sub.settle(ie.tracked)
			}
			return false
		}
	}
	for {
		select {
		case ie := <-r.eventCh:
			i := int(ie.sub.serial % n)
			buckets[i] = append(buckets[i], ie)
			if len(buckets[i]) >= r.tun.BatchSize {
				if !flush(i) {
					r.drainEvents()
					return
				}
			} else if windowC == nil {
				window = time.NewTimer(r.tun.BatchWindow)
				windowC = window.C
			}
		case <-windowC:
			windowC = nil
			for i := range buckets {
				if !flush(i) {
					r.drainEvents()
					return
				}
			}
		case <-connCtx.Done():
			if window != nil {
				window.Stop()
			}
			for i := range buckets {
				for _, ie := range buckets[i] {
					ie.sub.settle(ie.tracked)
				}
			}
			r.drainEvents()
			return
		}
	}
}

// drainEvents releases tracked frames left in the ingress channel at
// shutdown so no end-of-stored-events barrier is left hanging.
func (r *T) drainEvents() {
	for {
		select {
		case ie := <-r.eventCh:
			ie.sub.settle(ie.tracked)
		default:
			return
		}
	}
}

func (r *T) eventWorker(connCtx context.T, i int) {
	defer r.wg.Done()
	for {
		select {
		case batch := <-r.batchChs[i]:
			for _, ie := range batch {
				r.processEvent(ie)
			}
		case <-connCtx.Done():
			for {
				select {
				case batch := <-r.batchChs[i]:
					for _, ie := range batch {
						ie.sub.settle(ie.tracked)
					}
				default:
					return
				}
			}
		}
	}
}

// processEvent parses one raw EVENT frame, screens it against the
// subscription filters and the ban table, and either hands it to the
// verification lane or delivers it directly.
func (r *T) processEvent(ie inboundEvent) {
	env := &eventenvelope.T{}
	if err := env.UnmarshalJSON(ie.raw); chk.D(err) {
		ie.sub.settle(ie.tracked)
		r.stats.inc(r.stats.eventsDropped)
		return
	}
	ev := env.Event
	sub := ie.sub
	if !sub.Live.Load() {
		sub.settle(ie.tracked)
		return
	}
	// check if the event matches the desired filter, ignore otherwise
	if !sub.Filters.Match(ev) {
		log.D.F("{%s} filter does not match: %v ~ %v", r.URL, sub.Filters, ev)
		sub.settle(ie.tracked)
		r.stats.inc(r.stats.eventsDropped)
		return
	}
	if r.bans.banned(ev.PubKey) {
		sub.settle(ie.tracked)
		r.stats.inc(r.stats.eventsDropped)
		return
	}
	pe := parsedEvent{ev: ev, sub: sub, tracked: ie.tracked}
	if r.AssumeValid {
		r.deliver(pe)
		return
	}
	if r.tun.SyncVerify {
		valid, err := ev.CheckSignature()
		r.finishVerify(pe, valid, err)
		return
	}
	select {
	case r.verifyChs[sub.serial%int64(len(r.verifyChs))] <- pe:
	default:
		// verification backlog: drop the newest
		sub.settle(ie.tracked)
		r.stats.inc(r.stats.eventsDropped)
	}
}

func (r *T) verifyWorker(connCtx context.T, i int) {
	defer r.wg.Done()
	for {
		select {
		case pe := <-r.verifyChs[i]:
			valid, err := pe.ev.CheckSignature()
			select {
			case r.resultCh <- verifyResult{pe: pe, valid: valid, err: err}:
			case <-connCtx.Done():
				pe.sub.settle(pe.tracked)
				return
			}
		case <-connCtx.Done():
			for {
				select {
				case pe := <-r.verifyChs[i]:
					pe.sub.settle(pe.tracked)
				default:
					return
				}
			}
		}
	}
}

// resultProcessor applies verification outcomes in a single goroutine so the
// ban table sees failures in arrival order.
func (r *T) resultProcessor(connCtx context.T) {
	defer r.wg.Done()
	for {
		select {
		case res := <-r.resultCh:
			r.finishVerify(res.pe, res.valid, res.err)
		case <-connCtx.Done():
			for {
				select {
				case res := <-r.resultCh:
					res.pe.sub.settle(res.pe.tracked)
				default:
					return
				}
			}
		}
	}
}

func (r *T) finishVerify(pe parsedEvent, valid bool, err error) {
	if !valid {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		log.E.F("{%s} bad signature on %s from %s: %s", r.URL, pe.ev.ID,
			pe.ev.PubKey, msg)
		r.stats.inc(r.stats.verifyFailed)
		if r.bans.fail(pe.ev.PubKey) {
			r.stats.inc(r.stats.bans)
			log.I.F("{%s} dropping %s for repeated invalid signatures",
				r.URL, pe.ev.PubKey)
		}
		pe.sub.settle(pe.tracked)
		return
	}
	r.stats.inc(r.stats.verifyOK)
	r.deliver(pe)
}

// deliver hands the event to the subscription and settles its barrier count.
func (r *T) deliver(pe parsedEvent) {
	if pe.sub.dispatchEvent(pe.ev) {
		r.stats.inc(r.stats.eventsDispatched)
	} else {
		r.stats.inc(r.stats.eventsDropped)
	}
	pe.sub.settle(pe.tracked)
}

func (r *T) controlProcessor(connCtx context.T) {
	defer r.wg.Done()
	for {
		select {
		case message := <-r.controlCh:
			r.processControl(message)
		case <-connCtx.Done():
			return
		}
	}
}

// processControl parses and dispatches one non-EVENT frame.
func (r *T) processControl(message []byte) {
	envelope, err := envelopes.ParseMessage(message)
	if chk.D(err) {
		return
	}
	switch env := envelope.(type) {
	case *noticeenvelope.T:
		// see WithNoticeHandler
		if r.notices != nil {
			select {
			case r.notices <- env.Text:
			case <-r.ctx.Done():
			}
		} else {
			log.D.F("NOTICE from %s: '%s'", r.URL, env.Text)
		}
	case *authenvelope.T:
		if env.Challenge == "" {
			return
		}
		r.challenge.Store(env.Challenge)
		// see WithAuthHandler
		if r.challenges != nil {
			select {
			case r.challenges <- env.Challenge:
			case <-r.ctx.Done():
			}
		}
	case *eoseenvelope.T:
		if sub, ok := r.subscriptionFor(env.SubscriptionID); ok {
			sub.dispatchEose()
		}
	case *closedenvelope.T:
		if sub, ok := r.subscriptionFor(env.SubscriptionID); ok {
			sub.dispatchClosed(env.Reason)
			r.Subscriptions.Delete(sub.serial)
		}
	case *countenvelope.T:
		if sub, ok := r.subscriptionFor(env.SubscriptionID); ok &&
			sub.CountResult != nil && env.Count != nil {
			select {
			case sub.CountResult <- *env.Count:
			default:
			}
		}
	case *okenvelope.T:
		if okCallback, exist := r.okCallbacks.Load(env.ID.String()); exist {
			okCallback(env.OK, env.Reason)
		} else {
			log.D.F("{%s} no ok callback for %s", r.URL, env.ID)
		}
	default:
		log.D.F("{%s} unhandled %s message", r.URL, envelope.Label())
	}
}

func (r *T) subscriptionFor(id string) (*Subscription, bool) {
	serial, ok := parseSubSerial(id)
	if !ok {
		return nil, false
	}
	return r.Subscriptions.Load(serial)
}

// supervise watches the life of one websocket and either tears the relay
// down or redials when it drops. Deliberately not in the waitgroup: Close
// joins the workers, and this is the goroutine that may call Close.
func (r *T) supervise(connCtx context.T) {
	<-connCtx.Done()
	if r.closed.Load() {
		return
	}
	if r.ctx.Err() != nil {
		// the lifetime context ended without Close being called; tear the
		// websocket down anyway
		chk.D(r.Close())
		return
	}
	if !r.reconnect {
		log.D.F("{%s} connection lost", r.URL)
		chk.D(r.Close())
		return
	}
	r.setState(StateConnecting)
	backoff := time.Second
	for {
		d := jitter(backoff)
		log.D.F("{%s} reconnecting in %v", r.URL, d)
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(d):
		}
		// snapshot the subscriptions to revive, then dial
		var live []*Subscription
		r.Subscriptions.Range(func(_ int64, sub *Subscription) bool {
			if sub.Live.Load() {
				live = append(live, sub)
			}
			return true
		})
		c, cancel := context.Timeout(r.ctx, 7*time.Second)
		err := r.Connect(c)
		cancel()
		if err == nil {
			for _, sub := range live {
				// the new session replays stored events and ends them with
				// its own EOSE
				sub.Eosed.Store(false)
				if err = sub.Fire(); chk.D(err) {
				}
			}
			return
		}
		log.D.F("{%s} reconnect failed: %v", r.URL, err)
		backoff *= 2
		if backoff > 300*time.Second {
			backoff = 300 * time.Second
		}
	}
}

// jitter spreads a delay out to half either side of its base.
func jitter(d time.Duration) time.Duration {
	return time.Duration(int64(d)/2 + int64(frand.Intn(int(d))))
}

// Publish sends an "EVENT" command to the relay r as in NIP-01. Status can
// be: success, failed, or sent (no response from relay before ctx times out).
func (r *T) Publish(c context.T, evt *event.T) (s Status, err error) {
	s = PublishStatusFailed
	// data races on status variable without this mutex
	var mu sync.Mutex
	if _, ok := c.Deadline(); !ok {
		// if no timeout is set, force it to 7 seconds
		var cancel context.F
		c, cancel = context.Timeout(c, 7*time.Second)
		defer cancel()
	}
	// make it cancellable so we can stop everything upon receiving an "OK"
	var cancel context.F
	c, cancel = context.Cancel(c)
	defer cancel()
	// listen for an OK callback
	okCallback := func(ok bool, reason string) {
		mu.Lock()
		defer mu.Unlock()
		if ok {
			s = PublishStatusSucceeded
		} else {
			s = PublishStatusFailed
			err = fmt.Errorf("msg: %s", reason)
		}
		cancel()
	}
	r.okCallbacks.Store(evt.ID.String(), okCallback)
	defer r.okCallbacks.Delete(evt.ID.String())
	// publish event
	var envb []byte
	if envb, err = (&eventenvelope.T{Event: evt}).MarshalJSON(); chk.D(err) {
		return
	}
	log.D.F("{%s} sending %v", r.URL, string(envb))
	mu.Lock()
	s = PublishStatusSent
	mu.Unlock()
	if werr := <-r.Write(envb); chk.D(werr) {
		mu.Lock()
		defer mu.Unlock()
		s = PublishStatusFailed
		err = werr
		return
	}
	select {
	case <-c.Done():
		// called when we get an OK, or the timeout ran out
	case <-r.ctx.Done():
		// same as above, but when the relay loses connectivity entirely
	}
	mu.Lock()
	defer mu.Unlock()
	return
}

// Auth sends an "AUTH" command client -> relay as in NIP-42.
//
// Status can be: success, failed, or sent (no response from relay before ctx
// times out). NIP-42 does not mandate an "OK" reply, so the window is a
// short 3 seconds.
func (r *T) Auth(c context.T, evt *event.T) (s Status, err error) {
	s = PublishStatusFailed
	// data races on s variable without this mutex
	var mu sync.Mutex
	if _, ok := c.Deadline(); !ok {
		var cancel context.F
		c, cancel = context.Timeout(c, 3*time.Second)
		defer cancel()
	}
	// make it cancellable so we can stop everything upon receiving an "OK"
	var cancel context.F
	c, cancel = context.Cancel(c)
	defer cancel()
	// listen for an OK callback
	okCallback := func(ok bool, reason string) {
		mu.Lock()
		defer mu.Unlock()
		if ok {
			s = PublishStatusSucceeded
		} else {
			s = PublishStatusFailed
			err = fmt.Errorf("msg: %s", reason)
		}
		cancel()
	}
	r.okCallbacks.Store(evt.ID.String(), okCallback)
	defer r.okCallbacks.Delete(evt.ID.String())
	// send AUTH
	var authResponse []byte
	if authResponse, err = (&authenvelope.T{
		Event: evt,
	}).MarshalJSON(); chk.D(err) {
		return
	}
	log.D.F("{%s} sending %v", r.URL, string(authResponse))
	if werr := <-r.Write(authResponse); werr != nil {
		// s will be "failed"
		return s, werr
	}
	// use mu.Lock() just in case the okCallback got called, extremely
	// unlikely
	mu.Lock()
	s = PublishStatusSent
	mu.Unlock()
	select {
	case <-c.Done():
	case <-r.ctx.Done():
	}
	mu.Lock()
	defer mu.Unlock()
	return s, err
}

// Subscribe sends a "REQ" command to the relay r as in NIP-01. Events are
// returned through the channel sub.Events. The subscription is closed when
// context ctx is cancelled ("CLOSE" in NIP-01).
//
// Remember to Cancel subscriptions, either by calling `.Unsub()` on them or
// ensuring their `context.Context` will be canceled at some point. Failure
// to do that will result in a huge number of halted goroutines being
// created.
func (r *T) Subscribe(c context.T, ff filters.T,
	opts ...SubscriptionOption) (sub *Subscription, err error) {

	sub = r.PrepareSubscription(c, ff, opts...)
	if err = sub.Fire(); chk.D(err) {
		return nil, fmt.Errorf("couldn't subscribe to %v at %s: %w", ff,
			r.URL, err)
	}
	return
}

// PrepareSubscription creates a subscription, registered for routing but not
// yet fired.
//
// Remember to Cancel subscriptions, either by calling `.Unsub()` on them or
// ensuring their `context.Context` will be canceled at some point. Failure
// to do that will result in a huge number of halted goroutines being
// created.
func (r *T) PrepareSubscription(c context.T, ff filters.T,
	opts ...SubscriptionOption) (sub *Subscription) {

	if r.Connection == nil {
		panic(fmt.Errorf("must call .Connect() first before calling " +
			".Subscribe()"))
	}
	serial := r.serial.Inc()
	c, cancel := context.Cancel(c)
	sub = &Subscription{
		Relay:             r,
		Context:           c,
		Cancel:            cancel,
		label:             "sub",
		serial:            serial,
		Events:            make(chan *event.T, subscriptionEventChanCap),
		EndOfStoredEvents: make(chan struct{}, 1),
		ClosedReason:      make(chan string, 1),
		Filters:           ff,
	}
	for _, opt := range opts {
		switch o := opt.(type) {
		case WithLabel:
			sub.label = string(o)
		}
	}
	// registered before the REQ hits the wire so no frame arrives unroutable
	r.Subscriptions.Store(serial, sub)
	// start handling events, eose, unsub etc:
	go sub.start()
	return
}

// QuerySync subscribes with the single filter, collects events until EOSE or
// the context deadline, and unsubscribes.
func (r *T) QuerySync(c context.T, f *filter.T,
	opts ...SubscriptionOption) (evs []*event.T, err error) {

	var sub *Subscription
	if sub, err = r.Subscribe(c, filters.T{f}, opts...); chk.D(err) {
		return
	}
	defer sub.Unsub()
	if _, ok := c.Deadline(); !ok {
		// if no timeout is set, force it to 7 seconds
		var cancel context.F
		c, cancel = context.Timeout(c, 7*time.Second)
		defer cancel()
	}
	for {
		select {
		case ev := <-sub.Events:
			if ev == nil {
				// channel is closed
				return
			}
			evs = append(evs, ev)
		case <-sub.EndOfStoredEvents:
			return
		case <-c.Done():
			return
		}
	}
}

// Count sends a "COUNT" command as in NIP-45 and waits for the single count
// response.
func (r *T) Count(c context.T, ff filters.T,
	opts ...SubscriptionOption) (count int64, err error) {

	sub := r.PrepareSubscription(c, ff, opts...)
	sub.CountResult = make(chan int64, 1)
	if err = sub.Fire(); chk.D(err) {
		return
	}
	defer sub.Unsub()
	if _, ok := c.Deadline(); !ok {
		var cancel context.F
		c, cancel = context.Timeout(c, 7*time.Second)
		defer cancel()
	}
	select {
	case count = <-sub.CountResult:
		return
	case <-c.Done():
		return 0, c.Err()
	}
}

// Close shuts the relay down. The lifetime context ends first, queued writes
// are flushed, the workers joined, and only then is the websocket closed.
// Calling it again returns nil.
func (r *T) Close() (err error) {
	r.mx.Lock()
	if !r.closed.CompareAndSwap(false, true) {
		r.mx.Unlock()
		return nil
	}
	r.mx.Unlock()
	r.setState(StateClosing)
	r.cancel()
	// unblock a reader parked on the socket so the workers can join
	r.mx.Lock()
	conn := r.Connection
	r.mx.Unlock()
	if conn != nil {
		_ = conn.Conn.SetReadDeadline(time.Now())
	}
	r.wg.Wait()
	r.mx.Lock()
	conn = r.Connection
	r.Connection = nil
	r.mx.Unlock()
	if conn != nil {
		err = conn.Close()
	}
	r.stats.dump(r.URL)
	r.setState(StateClosed)
	return
}
