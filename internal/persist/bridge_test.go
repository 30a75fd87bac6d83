package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/voicespaces-server/internal/state"
	"github.com/vovakirdan/voicespaces-server/internal/store"
)

type fakeWriter struct {
	mu       sync.Mutex
	rooms    []store.Room
	parts    []store.Participant
	objects  []store.Object
	deleted  []string
	messages []store.Message

	// gate, when set, blocks every write until it is closed.
	gate    chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeWriter) wait(ctx context.Context) error {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeWriter) UpsertRoom(ctx context.Context, room store.Room) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, room)
	return nil
}

func (f *fakeWriter) UpsertParticipant(ctx context.Context, p store.Participant) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts = append(f.parts, p)
	return nil
}

func (f *fakeWriter) UpsertObject(ctx context.Context, obj store.Object) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, obj)
	return nil
}

func (f *fakeWriter) DeleteObject(ctx context.Context, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeWriter) AppendMessage(ctx context.Context, msg store.Message) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func TestBridgeWritesEveryOperation(t *testing.T) {
	w := &fakeWriter{}
	b := New(w, Config{Workers: 2, QueueSize: 16}, nil, nil)
	b.Start()

	b.SaveRoom("r1", "Room r1")
	b.SaveParticipant(state.Participant{ID: "c1", Name: "Alice", Color: "#ffffff", X: 1, Y: 2, RoomID: "r1"})
	b.SaveObject("r1", state.Object{ID: "o1", Type: "note", Content: "hi", ZIndex: 3})
	b.DeleteObject("o1")
	b.SaveMessage("r1", state.ChatMessage{ID: "m1", UserID: "c1", UserName: "Alice", Text: "hello", Timestamp: 42})

	require.NoError(t, b.Close(context.Background()))

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, []store.Room{{ID: "r1", Name: "Room r1"}}, w.rooms)
	assert.Equal(t, []store.Participant{{ID: "c1", Name: "Alice", Color: "#ffffff", X: 1, Y: 2, RoomID: "r1"}}, w.parts)
	assert.Equal(t, []store.Object{{ID: "o1", RoomID: "r1", Type: "note", Content: "hi", ZIndex: 3}}, w.objects)
	assert.Equal(t, []string{"o1"}, w.deleted)
	assert.Equal(t, []store.Message{{ID: "m1", RoomID: "r1", UserID: "c1", UserName: "Alice", Text: "hello", Timestamp: 42}}, w.messages)

	dropped, failed := b.Stats()
	assert.Zero(t, dropped)
	assert.Zero(t, failed)
}

func TestBridgeDropsWhenQueueFull(t *testing.T) {
	w := &fakeWriter{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	b := New(w, Config{Workers: 1, QueueSize: 1, WriteTimeout: time.Minute}, nil, nil)
	b.Start()

	b.SaveRoom("r1", "one")
	select {
	case <-w.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not pick up the first task")
	}

	// One task fits in the queue behind the blocked worker; the next is dropped.
	start := time.Now()
	b.SaveRoom("r2", "two")
	b.SaveRoom("r3", "three")
	assert.Less(t, time.Since(start), time.Second, "enqueue must not block")

	dropped, _ := b.Stats()
	assert.Equal(t, int64(1), dropped)

	close(w.gate)
	require.NoError(t, b.Close(context.Background()))

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.rooms, 2)
}

func TestBridgeFailuresAreNotRetried(t *testing.T) {
	w := &fakeWriter{err: errors.New("disk full")}
	b := New(w, Config{Workers: 1, QueueSize: 4}, nil, nil)
	b.Start()

	b.SaveObject("r1", state.Object{ID: "o1"})
	b.DeleteObject("o1")
	require.NoError(t, b.Close(context.Background()))

	_, failed := b.Stats()
	assert.Equal(t, int64(2), failed)
	assert.Empty(t, w.objects)
}

func TestBridgeRejectsAfterClose(t *testing.T) {
	w := &fakeWriter{}
	b := New(w, Config{Workers: 1, QueueSize: 4}, nil, nil)
	b.Start()
	require.NoError(t, b.Close(context.Background()))

	assert.NotPanics(t, func() { b.SaveRoom("late", "late") })

	dropped, _ := b.Stats()
	assert.Equal(t, int64(1), dropped)
	assert.Empty(t, w.rooms)

	// Close is idempotent.
	require.NoError(t, b.Close(context.Background()))
}

func TestBridgeCloseDrainsQueuedTasks(t *testing.T) {
	w := &fakeWriter{}
	b := New(w, Config{Workers: 1, QueueSize: 64}, nil, nil)

	// Queued before the workers exist; Close still drains them.
	for i := 0; i < 10; i++ {
		b.DeleteObject("o")
	}
	require.NoError(t, b.Close(context.Background()))

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Len(t, w.deleted, 10)
}

func TestBridgeCloseTimesOut(t *testing.T) {
	w := &fakeWriter{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	b := New(w, Config{Workers: 1, QueueSize: 8, WriteTimeout: 50 * time.Millisecond}, nil, nil)
	b.Start()

	b.SaveRoom("r1", "one")
	<-w.started
	b.SaveRoom("r2", "two")
	b.SaveRoom("r3", "three")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := b.Close(ctx)
	assert.ErrorIs(t, err, ErrDrainTimeout)

	dropped, _ := b.Stats()
	assert.Equal(t, int64(2), dropped)
}
