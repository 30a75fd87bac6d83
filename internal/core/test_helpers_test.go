package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/voicespaces-server/internal/state"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventOf(t, ch, kind)
}

// mustEventOf returns the first event whose kind is one of kinds,
// skipping everything else.
func mustEventOf(t *testing.T, ch <-chan *Event, kinds ...EventKind) *Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			for _, k := range kinds {
				if ev.Kind == k {
					return ev
				}
			}
		case <-timeout:
			t.Fatalf("expected event kinds %v not received", kinds)
			return nil
		}
	}
}

func newTestHub(t *testing.T, history HistoryReader) (*Hub, *state.Coordinator) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	coord := state.New(nil, state.DefaultOptions(), nil)
	hub := NewHub(coord, history, nil, nil)
	go hub.Run(ctx)
	return hub, coord
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, 0)
	hub.RegisterClient(c)
	t.Cleanup(func() { hub.UnregisterClient(c) })
	mustEvent(t, c.Events, EventActiveRooms)
	return c
}

func submit(t *testing.T, c *Client, cmd *Command) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !c.Submit(ctx, cmd) {
		t.Fatalf("submit %v for %s failed", cmd.Kind, c.ID)
	}
}

func joinRoom(t *testing.T, c *Client, room, name string) *Event {
	t.Helper()

	submit(t, c, &Command{Kind: CommandJoinRoom, Room: room, Name: name})
	return mustEvent(t, c.Events, EventRoomState)
}
