package event_test

import (
	"testing"

	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/tags"
)

func TestGetPriority(t *testing.T) {
	viewer := "4fdb07df4a683e3ee9b2a9d117e01bfe2548d7e8c0d4cb56d77e9c23091c3fc3"
	other := "e9142f724955c5854de36324dab0434f97b15ec6b33464d56ebe491e3f559d1b"
	for _, c := range []struct {
		name   string
		ev     event.T
		viewer string
		want   event.Priority
	}{
		{"legacy dm", event.T{Kind: kind.EncryptedDirectMessage}, "",
			event.PriorityCritical},
		{"gift wrap", event.T{Kind: kind.GiftWrap}, "",
			event.PriorityCritical},
		{"zap receipt", event.T{Kind: kind.Zap}, "",
			event.PriorityCritical},
		{"reply", event.T{Kind: kind.TextNote,
			Tags: tags.T{{"e", "abc"}}}, "", event.PriorityHigh},
		{"mention of viewer", event.T{Kind: kind.TextNote,
			Tags: tags.T{{"p", viewer}}}, viewer, event.PriorityCritical},
		{"mention of someone else", event.T{Kind: kind.TextNote,
			Tags: tags.T{{"p", other}}}, viewer, event.PriorityNormal},
		{"mention without viewer", event.T{Kind: kind.TextNote,
			Tags: tags.T{{"p", viewer}}}, "", event.PriorityNormal},
		{"mention outranks reply", event.T{Kind: kind.TextNote,
			Tags: tags.T{{"p", viewer}, {"e", "abc"}}}, viewer,
			event.PriorityCritical},
		{"repost", event.T{Kind: kind.Repost}, "", event.PriorityLow},
		{"reaction", event.T{Kind: kind.Reaction}, "", event.PriorityLow},
		{"plain note", event.T{Kind: kind.TextNote}, "",
			event.PriorityNormal},
		{"profile", event.T{Kind: kind.ProfileMetadata}, "",
			event.PriorityNormal},
	} {
		if got := c.ev.GetPriority(c.viewer); got != c.want {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestPriorityOrdering(t *testing.T) {
	if !(event.PriorityLow < event.PriorityNormal &&
		event.PriorityNormal < event.PriorityHigh &&
		event.PriorityHigh < event.PriorityCritical) {
		t.Fatal("priority levels are not ordered")
	}
}
