package core

import "sync"

// group is the transport-side fan-out set for one room id. It mirrors
// room membership in the state registry but is owned by the hub.
type group struct {
	id      string
	mu      sync.RWMutex
	clients map[string]*Client
}

func newGroup(id string) *group {
	return &group{
		id:      id,
		clients: make(map[string]*Client),
	}
}

// add inserts a client. Returns true if newly added.
func (g *group) add(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.clients[c.ID]; exists {
		return false
	}
	g.clients[c.ID] = c
	return true
}

// remove deletes a client. Returns true if removed.
func (g *group) remove(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.clients[c.ID]; !exists {
		return false
	}
	delete(g.clients, c.ID)
	return true
}

// broadcast sends an event to every client except the one with id except.
// It returns the number of clients that dropped the event.
func (g *group) broadcast(ev *Event, except string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	dropped := 0
	for id, client := range g.clients {
		if id == except {
			continue
		}
		if !client.send(ev) {
			dropped++
		}
	}
	return dropped
}

func (g *group) empty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients) == 0
}
