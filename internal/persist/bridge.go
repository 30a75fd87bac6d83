// Package persist turns in-memory mutations into store writes off the
// real-time path. Tasks go into a bounded queue drained by a fixed worker
// pool; a full queue drops the task instead of blocking the caller.
package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vovakirdan/voicespaces-server/internal/metrics"
	"github.com/vovakirdan/voicespaces-server/internal/state"
	"github.com/vovakirdan/voicespaces-server/internal/store"
)

// Task operation names, also used as metric and span labels.
const (
	OpSaveRoom        = "save_room"
	OpSaveParticipant = "save_participant"
	OpSaveObject      = "save_object"
	OpDeleteObject    = "delete_object"
	OpSaveMessage     = "save_message"
)

// Writer is the part of the store the bridge writes to.
type Writer interface {
	UpsertRoom(ctx context.Context, room store.Room) error
	UpsertParticipant(ctx context.Context, p store.Participant) error
	UpsertObject(ctx context.Context, obj store.Object) error
	DeleteObject(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg store.Message) error
}

// Config sizes the queue and the worker pool.
type Config struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

// DefaultConfig returns the default bridge configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		QueueSize:    1024,
		WriteTimeout: 5 * time.Second,
	}
}

type task struct {
	op  string
	id  string
	run func(ctx context.Context) error
}

// Bridge implements state.Sink on top of a Writer.
type Bridge struct {
	w       Writer
	cfg     Config
	log     *zerolog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	tasks chan task
	abort chan struct{}

	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	closeOnce sync.Once
	wg        conc.WaitGroup

	dropped atomic.Int64
	failed  atomic.Int64
}

var _ state.Sink = (*Bridge)(nil)

// ErrDrainTimeout is returned by Close when queued tasks were abandoned.
var ErrDrainTimeout = errors.New("persist: drain timed out")

// New creates a bridge. Call Start to launch the workers.
func New(w Writer, cfg Config, logger *zerolog.Logger, m *metrics.Metrics) *Bridge {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Bridge{
		w:       w,
		cfg:     cfg,
		log:     logger,
		metrics: m,
		tracer:  otel.Tracer("github.com/vovakirdan/voicespaces-server/internal/persist"),
		tasks:   make(chan task, cfg.QueueSize),
		abort:   make(chan struct{}),
	}
}

// Start launches the worker pool. Subsequent calls do nothing.
func (b *Bridge) Start() {
	b.startOnce.Do(func() {
		for i := 0; i < b.cfg.Workers; i++ {
			b.wg.Go(b.worker)
		}
		b.log.Info().
			Int("workers", b.cfg.Workers).
			Int("queue_size", b.cfg.QueueSize).
			Msg("persistence bridge started")
	})
}

// Close stops accepting tasks and waits for the queue to drain.
// When ctx expires first, the remaining tasks are abandoned and
// ErrDrainTimeout is returned.
func (b *Bridge) Close(ctx context.Context) error {
	var err error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.tasks)
		b.mu.Unlock()

		// Workers that were never started cannot drain anything.
		b.Start()

		done := make(chan struct{})
		go func() {
			b.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			b.log.Info().Msg("persistence bridge drained")
		case <-ctx.Done():
			close(b.abort)
			<-done
			left := 0
			for t := range b.tasks {
				b.dropped.Add(1)
				b.metrics.PersistTask(t.op, metrics.ResultDropped)
				left++
			}
			b.metrics.SetQueueDepth(0)
			b.log.Warn().
				Int("abandoned", left).
				Msg("persistence bridge drain timed out")
			err = ErrDrainTimeout
		}
	})
	return err
}

// Stats reports how many tasks were dropped and how many writes failed.
func (b *Bridge) Stats() (dropped, failed int64) {
	return b.dropped.Load(), b.failed.Load()
}

func (b *Bridge) enqueue(t task) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.drop(t, "closed")
		return false
	}

	select {
	case b.tasks <- t:
		b.metrics.SetQueueDepth(len(b.tasks))
		return true
	default:
		b.drop(t, "queue full")
		return false
	}
}

func (b *Bridge) drop(t task, reason string) {
	b.dropped.Add(1)
	b.metrics.PersistTask(t.op, metrics.ResultDropped)
	b.log.Warn().
		Str("op", t.op).
		Str("id", t.id).
		Str("reason", reason).
		Msg("durability task dropped")
}

func (b *Bridge) worker() {
	for {
		// abort wins over pending tasks.
		select {
		case <-b.abort:
			return
		default:
		}

		select {
		case <-b.abort:
			return
		case t, ok := <-b.tasks:
			if !ok {
				return
			}
			b.metrics.SetQueueDepth(len(b.tasks))
			b.execute(t)
		}
	}
}

func (b *Bridge) execute(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.WriteTimeout)
	defer cancel()

	ctx, span := b.tracer.Start(ctx, "persist."+t.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("persist.op", t.op),
			attribute.String("persist.id", t.id),
		),
	)
	defer span.End()

	start := time.Now()
	err := t.run(ctx)
	b.metrics.ObservePersist(t.op, time.Since(start).Seconds())

	if err != nil {
		b.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.PersistTask(t.op, metrics.ResultError)
		b.log.Warn().
			Err(err).
			Str("op", t.op).
			Str("id", t.id).
			Msg("durability write failed")
		return
	}

	span.SetStatus(codes.Ok, "")
	b.metrics.PersistTask(t.op, metrics.ResultOK)
}

// ==== state.Sink implementation ====

// SaveRoom upserts the room row.
func (b *Bridge) SaveRoom(id, name string) {
	row := store.Room{ID: id, Name: name}
	b.enqueue(task{op: OpSaveRoom, id: id, run: func(ctx context.Context) error {
		return b.w.UpsertRoom(ctx, row)
	}})
}

// SaveParticipant upserts the participant row.
func (b *Bridge) SaveParticipant(p state.Participant) {
	row := store.Participant{ID: p.ID, Name: p.Name, Color: p.Color, X: p.X, Y: p.Y, RoomID: p.RoomID}
	b.enqueue(task{op: OpSaveParticipant, id: p.ID, run: func(ctx context.Context) error {
		return b.w.UpsertParticipant(ctx, row)
	}})
}

// SaveObject upserts the object row.
func (b *Bridge) SaveObject(roomID string, obj state.Object) {
	row := store.Object{
		ID:       obj.ID,
		RoomID:   roomID,
		Type:     obj.Type,
		X:        obj.X,
		Y:        obj.Y,
		Width:    obj.Width,
		Height:   obj.Height,
		Content:  obj.Content,
		ZIndex:   obj.ZIndex,
		Rotation: obj.Rotation,
	}
	b.enqueue(task{op: OpSaveObject, id: obj.ID, run: func(ctx context.Context) error {
		return b.w.UpsertObject(ctx, row)
	}})
}

// DeleteObject removes the object row.
func (b *Bridge) DeleteObject(objectID string) {
	b.enqueue(task{op: OpDeleteObject, id: objectID, run: func(ctx context.Context) error {
		return b.w.DeleteObject(ctx, objectID)
	}})
}

// SaveMessage appends the chat message.
func (b *Bridge) SaveMessage(roomID string, msg state.ChatMessage) {
	row := store.Message{
		ID:        msg.ID,
		RoomID:    roomID,
		UserID:    msg.UserID,
		UserName:  msg.UserName,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}
	b.enqueue(task{op: OpSaveMessage, id: msg.ID, run: func(ctx context.Context) error {
		return b.w.AppendMessage(ctx, row)
	}})
}
