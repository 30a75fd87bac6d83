package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/vovakirdan/voicespaces-server/internal/state"
)

func benchmarkRoomMove(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(state.New(nil, state.DefaultOptions(), nil), nil, nil, nil)
	go hub.Run(ctx)

	sender := NewClient("sender", 0)
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench", Name: "sender"}

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient(fmt.Sprintf("c%d", i), 0)
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench", Name: c.ID}
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for {
				select {
				case <-cl.Events:
				case <-ctx.Done():
					return
				}
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandMove, X: float64(i), Y: 1}
		for ev := range target.Events {
			if ev.Kind == EventUserMoved {
				break
			}
		}
	}
}

func BenchmarkRoomMove_10(b *testing.B)  { benchmarkRoomMove(b, 10) }
func BenchmarkRoomMove_100(b *testing.B) { benchmarkRoomMove(b, 100) }
func BenchmarkRoomMove_500(b *testing.B) { benchmarkRoomMove(b, 500) }
