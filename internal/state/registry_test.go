package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetReturnsClone(t *testing.T) {
	r := NewRegistry()
	r.Put(Room{ID: "r1", Name: "One", Participants: []Participant{{ID: "a"}}})

	snap, ok := r.Get("r1")
	require.True(t, ok)
	snap.Participants[0].Name = "mutated"
	snap.Participants = append(snap.Participants, Participant{ID: "b"})

	fresh, _ := r.Get("r1")
	require.Len(t, fresh.Participants, 1)
	assert.Empty(t, fresh.Participants[0].Name)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryGetOrCreateRunsOnce(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.GetOrCreate("r1", func() Room { return Room{ID: "r1"} }) {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryUpdateSerializesSameRoom(t *testing.T) {
	r := NewRegistry()
	r.Put(Room{ID: "r1"})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Update("r1", func(room *Room) {
				room.Objects = append(room.Objects, Object{ID: fmt.Sprint(i)})
			})
		}(i)
	}
	wg.Wait()

	room, _ := r.Get("r1")
	assert.Len(t, room.Objects, 50)
}

func TestRegistryRoomsDoNotBlockEachOther(t *testing.T) {
	r := NewRegistry()
	r.Put(Room{ID: "busy"})
	r.Put(Room{ID: "idle"})

	entered := make(chan struct{})
	release := make(chan struct{})
	go r.Update("busy", func(*Room) {
		close(entered)
		<-release
	})
	<-entered
	defer close(release)

	done := make(chan struct{})
	go func() {
		r.Update("idle", func(room *Room) { room.Name = "touched" })
		_, _ = r.Get("idle")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutation of an unrelated room blocked")
	}
}

func TestRegistryUpdateUnknownRoom(t *testing.T) {
	r := NewRegistry()
	called := false
	assert.False(t, r.Update("nope", func(*Room) { called = true }))
	assert.False(t, called)
}
