package state

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// roomSlot owns one room. Its mutex is the per-room critical section.
type roomSlot struct {
	mu   sync.RWMutex
	room Room
}

// Registry maps room ids to room state.
//
// Lookups go through a concurrent map and never take a lock shared with
// other rooms; mutations lock only the slot of the room they touch, so
// writers in different rooms proceed in parallel.
type Registry struct {
	rooms *xsync.MapOf[string, *roomSlot]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: xsync.NewMapOf[string, *roomSlot]()}
}

// Get returns a cloned snapshot of the room.
func (r *Registry) Get(id string) (Room, bool) {
	slot, ok := r.rooms.Load(id)
	if !ok {
		return Room{}, false
	}
	slot.mu.RLock()
	defer slot.mu.RUnlock()
	return slot.room.Clone(), true
}

// GetOrCreate inserts a room built by newRoom when id is absent.
// It reports whether the room was created by this call.
func (r *Registry) GetOrCreate(id string, newRoom func() Room) bool {
	created := false
	r.rooms.LoadOrCompute(id, func() *roomSlot {
		created = true
		return &roomSlot{room: newRoom()}
	})
	return created
}

// Put replaces the room stored under room.ID.
func (r *Registry) Put(room Room) {
	r.rooms.Store(room.ID, &roomSlot{room: room})
}

// Update runs fn with exclusive access to the room. fn must not block.
// It returns false when the room does not exist.
func (r *Registry) Update(id string, fn func(room *Room)) bool {
	slot, ok := r.rooms.Load(id)
	if !ok {
		return false
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	fn(&slot.room)
	return true
}

// View runs fn with shared access to the room. fn must not retain room.
func (r *Registry) View(id string, fn func(room *Room)) bool {
	slot, ok := r.rooms.Load(id)
	if !ok {
		return false
	}
	slot.mu.RLock()
	defer slot.mu.RUnlock()
	fn(&slot.room)
	return true
}

// Snapshot returns clones of every room ordered by id.
func (r *Registry) Snapshot() []Room {
	out := make([]Room, 0, r.rooms.Size())
	r.rooms.Range(func(_ string, slot *roomSlot) bool {
		slot.mu.RLock()
		out = append(out, slot.room.Clone())
		slot.mu.RUnlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the ids of all tracked rooms.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, r.rooms.Size())
	r.rooms.Range(func(id string, _ *roomSlot) bool {
		ids = append(ids, id)
		return true
	})
	sort.Strings(ids)
	return ids
}

// Len returns the number of tracked rooms.
func (r *Registry) Len() int {
	return r.rooms.Size()
}
