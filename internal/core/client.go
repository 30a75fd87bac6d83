package core

import (
	"context"
	"sync"
)

// DefaultEventBuffer is the event queue length used when none is given.
const DefaultEventBuffer = 64

// Client is a connection as seen by the core layer.
// Its ID doubles as the participant id in the room state.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Submit hands a command to the hub. It returns false once the client
// has been unregistered or ctx is done.
func (c *Client) Submit(ctx context.Context, cmd *Command) bool {
	select {
	case c.Commands <- cmd:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Done is closed when the client is unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// send queues an event without blocking. Slow consumers lose events.
func (c *Client) send(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
