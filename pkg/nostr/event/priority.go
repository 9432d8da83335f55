package event

import (
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
)

// Priority ranks events for dispatch when the delivery queues are under
// pressure. Higher values are more urgent.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// GetPriority classifies an event by kind and tags. Direct messages, gift
// wraps and zap receipts are critical, as is a text note that tags the
// viewer's pubkey. Replies rank high, reposts and reactions low, everything
// else normal. An empty viewer skips the mention check.
func (ev *T) GetPriority(viewer string) Priority {
	switch ev.Kind {
	case kind.EncryptedDirectMessage, kind.GiftWrap, kind.Zap:
		return PriorityCritical
	case kind.Repost, kind.Reaction:
		return PriorityLow
	case kind.TextNote:
		if viewer != "" && ev.Tags.ContainsAny("p", viewer) {
			return PriorityCritical
		}
		if ev.Tags.GetFirst([]string{"e"}) != nil {
			return PriorityHigh
		}
	}
	return PriorityNormal
}
