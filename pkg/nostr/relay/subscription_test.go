package relay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/chebizarro/nostrc-go/pkg/context"
	"github.com/chebizarro/nostrc-go/pkg/nostr/event"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filter"
	"github.com/chebizarro/nostrc-go/pkg/nostr/filters"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kind"
	"github.com/chebizarro/nostrc-go/pkg/nostr/kinds"

	"golang.org/x/net/websocket"
)

func TestSubscriptionRouting(t *testing.T) {
	priv, pub := makeKeyPair(t)
	note := &event.T{Kind: kind.TextNote, Content: "text"}
	if err := note.Sign(priv); err != nil {
		t.Fatalf("note.Sign: %v", err)
	}
	reaction := &event.T{Kind: kind.Reaction, Content: "+"}
	if err := reaction.Sign(priv); err != nil {
		t.Fatalf("reaction.Sign: %v", err)
	}

	// fake relay server: answer each REQ with the event matching its filter,
	// then EOSE
	ws := newWebsocketServer(func(conn *websocket.Conn) {
		for i := 0; i < 2; i++ {
			var raw []json.RawMessage
			if err := websocket.JSON.Receive(conn, &raw); err != nil {
				return
			}
			subid, ff := parseSubscriptionMessage(t, raw)
			ev := note
			if len(ff) == 1 && ff[0].Kinds.Contains(kind.Reaction) {
				ev = reaction
			}
			chk.E(websocket.JSON.Send(conn, []any{"EVENT", subid, ev}))
			chk.E(websocket.JSON.Send(conn, []any{"EOSE", subid}))
		}
		discardingHandler(conn)
	})
	defer ws.Close()

	rl := MustRelayConnect(ws.URL)
	defer rl.Close()

	notes, err := rl.Subscribe(context.Bg(), filters.T{{
		Kinds:   kinds.T{kind.TextNote},
		Authors: []string{pub},
	}})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	reactions, err := rl.Subscribe(context.Bg(), filters.T{{
		Kinds:   kinds.T{kind.Reaction},
		Authors: []string{pub},
	}})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// each subscription sees its own event and nothing else
	got := readEvent(t, notes)
	if got.ID != note.ID {
		t.Errorf("notes got event %s; want %s", got.ID, note.ID)
	}
	got = readEvent(t, reactions)
	if got.ID != reaction.ID {
		t.Errorf("reactions got event %s; want %s", got.ID, reaction.ID)
	}
	awaitEose(t, notes)
	awaitEose(t, reactions)
	select {
	case ev := <-notes.Events:
		t.Errorf("notes got extra event %v", ev)
	case ev := <-reactions.Events:
		t.Errorf("reactions got extra event %v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscriptionSerials(t *testing.T) {
	ws := newWebsocketServer(discardingHandler)
	defer ws.Close()

	rl := MustRelayConnect(ws.URL)
	defer rl.Close()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		sub := rl.PrepareSubscription(context.Bg(), filters.T{{}})
		id := sub.GetID()
		if seen[id] {
			t.Fatalf("duplicate subscription id %q", id)
		}
		seen[id] = true
		serial, ok := parseSubSerial(id)
		if !ok || serial != sub.Serial() {
			t.Fatalf("id %q does not round trip to serial %d", id,
				sub.Serial())
		}
	}
	labelled := rl.PrepareSubscription(context.Bg(), filters.T{{}},
		WithLabel("scan"))
	if id := labelled.GetID(); id != "scan:"+
		strconv.FormatInt(labelled.Serial(), 10) {
		t.Errorf("labelled id = %q", id)
	}
}

func TestEoseAfterStoredEvents(t *testing.T) {
	priv, pub := makeKeyPair(t)
	const stored = 100

	// fake relay server: flood stored events, then EOSE
	ws := newWebsocketServer(func(conn *websocket.Conn) {
		var raw []json.RawMessage
		if err := websocket.JSON.Receive(conn, &raw); err != nil {
			return
		}
		subid, _ := parseSubscriptionMessage(t, raw)
		for i := 0; i < stored; i++ {
			ev := &event.T{
				Kind:    kind.TextNote,
				Content: fmt.Sprintf("n=%d", i),
			}
			if err := ev.Sign(priv); err != nil {
				t.Errorf("Sign: %v", err)
				return
			}
			if err := websocket.JSON.Send(conn,
				[]any{"EVENT", subid, ev}); err != nil {
				return
			}
		}
		chk.E(websocket.JSON.Send(conn, []any{"EOSE", subid}))
		discardingHandler(conn)
	})
	defer ws.Close()

	rl := MustRelayConnect(ws.URL)
	defer rl.Close()

	sub, err := rl.Subscribe(context.Bg(), filters.T{{
		Kinds:   kinds.T{kind.TextNote},
		Authors: []string{pub},
	}})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// do not consume events: the flood must overflow the subscription
	// buffer, and EOSE must still arrive, and only after every stored event
	// was delivered or dropped
	select {
	case <-sub.EndOfStoredEvents:
	case <-time.After(5 * time.Second):
		t.Fatal("no EOSE within 5s")
	}

	// everything kept was delivered before the EOSE token, in wire order,
	// up to the buffer size
	var contents []string
drain:
	for {
		select {
		case ev := <-sub.Events:
			contents = append(contents, ev.Content)
		default:
			break drain
		}
	}
	if len(contents) != subscriptionEventChanCap {
		t.Fatalf("drained %d events; want %d", len(contents),
			subscriptionEventChanCap)
	}
	for i, content := range contents {
		if want := fmt.Sprintf("n=%d", i); content != want {
			t.Fatalf("event %d out of order: got %q want %q", i, content,
				want)
		}
	}
}

func TestCount(t *testing.T) {
	ws := newWebsocketServer(func(conn *websocket.Conn) {
		var raw []json.RawMessage
		if err := websocket.JSON.Receive(conn, &raw); err != nil {
			return
		}
		var typ, subid string
		chk.E(json.Unmarshal(raw[0], &typ))
		if typ != "COUNT" {
			t.Errorf("typ = %q; want COUNT", typ)
		}
		chk.E(json.Unmarshal(raw[1], &subid))
		chk.E(websocket.JSON.Send(conn,
			[]any{"COUNT", subid, map[string]int64{"count": 42}}))
		discardingHandler(conn)
	})
	defer ws.Close()

	rl := MustRelayConnect(ws.URL)
	defer rl.Close()

	count, err := rl.Count(context.Bg(), filters.T{{
		Kinds: kinds.T{kind.TextNote},
	}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d; want 42", count)
	}
}

func TestClosedReason(t *testing.T) {
	const reason = "auth-required: this query needs auth"
	ws := newWebsocketServer(func(conn *websocket.Conn) {
		var raw []json.RawMessage
		if err := websocket.JSON.Receive(conn, &raw); err != nil {
			return
		}
		subid, _ := parseSubscriptionMessage(t, raw)
		chk.E(websocket.JSON.Send(conn, []any{"CLOSED", subid, reason}))
		discardingHandler(conn)
	})
	defer ws.Close()

	rl := MustRelayConnect(ws.URL)
	defer rl.Close()

	sub, err := rl.Subscribe(context.Bg(), filters.T{{
		Kinds: kinds.T{kind.TextNote},
	}})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	select {
	case got := <-sub.ClosedReason:
		if got != reason {
			t.Errorf("reason %q; want %q", got, reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no CLOSED within 2s")
	}
	if !sub.Closed.Load() {
		t.Error("subscription should be marked closed")
	}
	// the routing table entry is removed once CLOSED is delivered
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := rl.Subscriptions.Load(sub.Serial()); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscription still registered after CLOSED")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQuerySync(t *testing.T) {
	priv, pub := makeKeyPair(t)
	ws := newWebsocketServer(func(conn *websocket.Conn) {
		var raw []json.RawMessage
		if err := websocket.JSON.Receive(conn, &raw); err != nil {
			return
		}
		subid, _ := parseSubscriptionMessage(t, raw)
		for i := 0; i < 3; i++ {
			ev := &event.T{
				Kind:    kind.TextNote,
				Content: fmt.Sprintf("note %d", i),
			}
			if err := ev.Sign(priv); err != nil {
				t.Errorf("Sign: %v", err)
				return
			}
			chk.E(websocket.JSON.Send(conn, []any{"EVENT", subid, ev}))
		}
		chk.E(websocket.JSON.Send(conn, []any{"EOSE", subid}))
		discardingHandler(conn)
	})
	defer ws.Close()

	rl := MustRelayConnect(ws.URL)
	defer rl.Close()

	evs, err := rl.QuerySync(context.Bg(), &filter.T{
		Kinds:   kinds.T{kind.TextNote},
		Authors: []string{pub},
	})
	if err != nil {
		t.Fatalf("QuerySync: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("got %d events; want 3", len(evs))
	}
	for i, ev := range evs {
		if want := fmt.Sprintf("note %d", i); ev.Content != want {
			t.Errorf("event %d content %q; want %q", i, ev.Content, want)
		}
	}
}

func readEvent(t *testing.T, sub *Subscription) *event.T {
	t.Helper()
	select {
	case ev := <-sub.Events:
		if ev == nil {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event within 2s")
	}
	return nil
}

func awaitEose(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.EndOfStoredEvents:
	case <-time.After(2 * time.Second):
		t.Fatal("no EOSE within 2s")
	}
}
