package relay

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/closeenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/countenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/envelopes/reqenvelope"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
)

// subscriptionEventChanCap bounds the per-subscription event channel. New
// events are dropped when the consumer falls this far behind; EOSE and CLOSED
// are delivered regardless.
const subscriptionEventChanCap = 32

// Subscription is a registered REQ and the channels its results arrive on.
// Events carries matching events in wire order, EndOfStoredEvents receives
// exactly one token after the last stored event, ClosedReason receives the
// reason if the relay terminates the subscription.
type Subscription struct {
	label  string
	serial int64
	Relay  *T

	Filters filters.T
	// for this to be treated as a COUNT and not a REQ this must be set
	CountResult chan int64

	Events            chan *event.T
	EndOfStoredEvents chan struct{}
	ClosedReason      chan string

	// Context will be done when the subscription ends.
	Context context.T
	Cancel  context.F

	Live   atomic.Bool
	Eosed  atomic.Bool
	Closed atomic.Bool

	// storedwg tracks events that entered the pipeline before EOSE so the
	// EndOfStoredEvents token is sent only after each has been delivered or
	// dropped.
	storedwg sync.WaitGroup

	mu           sync.Mutex
	eventsClosed bool
}

// SubscriptionOption is the type of the arguments passed to Subscribe and
// PrepareSubscription.
type SubscriptionOption interface {
	IsSubscriptionOption()
}

// WithLabel replaces the default "sub" prefix of the subscription ID sent to
// the relay.
type WithLabel string

func (_ WithLabel) IsSubscriptionOption() {}

var _ SubscriptionOption = (WithLabel)("")

// GetID returns the subscription ID as sent to the relay: the label and the
// serial joined with a colon.
func (sub *Subscription) GetID() string {
	return sub.label + ":" + strconv.FormatInt(sub.serial, 10)
}

// Serial returns the relay-local serial the subscription is keyed by.
func (sub *Subscription) Serial() int64 { return sub.serial }

// parseSubSerial recovers the serial from a wire subscription ID. Inbound
// frames carrying ids this runtime did not issue are not routable.
func parseSubSerial(id string) (serial int64, ok bool) {
	idx := strings.LastIndexByte(id, ':')
	if idx < 0 || idx == len(id)-1 {
		return 0, false
	}
	var err error
	if serial, err = strconv.ParseInt(id[idx+1:], 10, 64); err != nil {
		return 0, false
	}
	return serial, true
}

// start waits for the context to end, then unsubscribes and closes the
// events channel.
func (sub *Subscription) start() {
	<-sub.Context.Done()
	sub.Unsub()
	// so we don't have the possibility of closing the events channel and
	// then trying to send to it
	sub.mu.Lock()
	if !sub.eventsClosed {
		close(sub.Events)
		sub.eventsClosed = true
	}
	sub.mu.Unlock()
}

// dispatchEvent offers an event to the consumer without blocking; under
// pressure the newest event is dropped.
func (sub *Subscription) dispatchEvent(ev *event.T) (delivered bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.Live.Load() || sub.eventsClosed {
		return false
	}
	select {
	case sub.Events <- ev:
		return true
	default:
		return false
	}
}

// settle records that a tracked pre-EOSE event has been delivered or
// dropped, releasing the end-of-stored-events barrier by one.
func (sub *Subscription) settle(tracked bool) {
	if tracked {
		sub.storedwg.Done()
	}
}

// dispatchEose sends the single end-of-stored-events token once every event
// that entered the pipeline beforehand has been settled.
func (sub *Subscription) dispatchEose() {
	if sub.Eosed.CompareAndSwap(false, true) {
		go func() {
			settled := make(chan struct{})
			go func() {
				sub.storedwg.Wait()
				close(settled)
			}()
			select {
			case <-settled:
			case <-sub.Context.Done():
				return
			}
			select {
			case sub.EndOfStoredEvents <- struct{}{}:
			default:
			}
		}()
	}
}

// dispatchClosed marks the subscription terminated by the relay and delivers
// the reason.
func (sub *Subscription) dispatchClosed(reason string) {
	sub.Closed.Store(true)
	sub.Live.Store(false)
	select {
	case sub.ClosedReason <- reason:
	default:
	}
}

// Unsub closes the subscription, sending a CLOSE to the relay and removing it
// from the routing table.
func (sub *Subscription) Unsub() {
	sub.Cancel()
	// naive sync.Once
	if sub.Live.CompareAndSwap(true, false) {
		sub.Close()
	}
	sub.Relay.Subscriptions.Delete(sub.serial)
}

// Close just sends a CLOSE message. You probably want Unsub instead.
func (sub *Subscription) Close() {
	if sub.Relay.IsConnected() {
		closeb, err := closeenvelope.New(sub.GetID()).MarshalJSON()
		if chk.D(err) {
			return
		}
		log.D.F("{%s} sending %s", sub.Relay.URL, string(closeb))
		<-sub.Relay.Write(closeb)
	}
}

// Sub replaces the filters and fires the REQ again.
func (sub *Subscription) Sub(_ context.T, ff filters.T) {
	sub.Filters = ff
	if err := sub.Fire(); chk.D(err) {
	}
}

// Fire sends the REQ (or COUNT, when a count result channel is set) to the
// relay. The subscription is in the routing table before the frame is
// written.
func (sub *Subscription) Fire() (err error) {
	var reqb []byte
	if sub.CountResult == nil {
		reqb, err = (&reqenvelope.T{
			SubscriptionID: sub.GetID(),
			Filters:        sub.Filters,
		}).MarshalJSON()
	} else {
		reqb, err = (&countenvelope.T{
			SubscriptionID: sub.GetID(),
			Filters:        sub.Filters,
		}).MarshalJSON()
	}
	if chk.D(err) {
		return
	}
	log.D.F("{%s} sending %v", sub.Relay.URL, string(reqb))
	sub.Live.Store(true)
	if err = <-sub.Relay.Write(reqb); chk.D(err) {
		sub.Cancel()
		return fmt.Errorf("failed to write: %w", err)
	}
	return nil
}
