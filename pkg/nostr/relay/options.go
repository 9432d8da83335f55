package relay

import (
	"time"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
)

// State is the lifecycle position of a relay connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Status is the outcome of a publish or auth round trip.
type Status int

const (
	PublishStatusSent      Status = 0
	PublishStatusFailed    Status = -1
	PublishStatusSucceeded Status = 1
)

func (s Status) String() string {
	switch s {
	case PublishStatusSent:
		return "sent"
	case PublishStatusFailed:
		return "failed"
	case PublishStatusSucceeded:
		return "success"
	}
	return "unknown"
}

// Option is the type of the arguments passed to New and Connect. Some
// examples of this are WithNoticeHandler and WithAuthHandler.
type Option interface {
	IsRelayOption()
}

// WithNoticeHandler just takes notices and is expected to do something with
// them. When not given, notices are logged.
type WithNoticeHandler func(notice string)

func (_ WithNoticeHandler) IsRelayOption() {}

// WithAuthHandler takes an unsigned kind 22242 event and is expected to sign
// it, returning true on success. When not given, AUTH challenges from relays
// are stored but not answered.
type WithAuthHandler func(ctx context.T, authEvent *event.T) (ok bool)

func (_ WithAuthHandler) IsRelayOption() {}

// WithReconnect makes the relay redial after a lost connection with
// exponential backoff and re-fire the subscriptions that were live when the
// connection dropped.
type WithReconnect bool

func (_ WithReconnect) IsRelayOption() {}

// WithStateCallback registers a function called on every lifecycle
// transition. The callback runs outside the relay's locks and must not call
// back into the relay synchronously from Close.
type WithStateCallback func(s State)

func (_ WithStateCallback) IsRelayOption() {}

// WithBanPolicy overrides the invalid-signature ban defaults.
type WithBanPolicy struct {
	Threshold int
	Window    time.Duration
	Duration  time.Duration
}

func (_ WithBanPolicy) IsRelayOption() {}

var (
	_ Option = (WithNoticeHandler)(nil)
	_ Option = (WithAuthHandler)(nil)
	_ Option = (WithReconnect)(false)
	_ Option = (WithStateCallback)(nil)
	_ Option = (WithBanPolicy{})
)
