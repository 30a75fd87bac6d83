// Package state holds the in-memory room registry and the operations that
// mutate it. Every durable change is handed to a Sink after the per-room
// critical section is released; the Sink must not block.
package state

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

// Sink receives mutations that should become durable.
// Implementations return immediately; outcomes are not reported back.
type Sink interface {
	SaveRoom(id, name string)
	SaveParticipant(p Participant)
	SaveObject(roomID string, obj Object)
	DeleteObject(objectID string)
	SaveMessage(roomID string, msg ChatMessage)
}

// Options tunes participant placement.
type Options struct {
	CanvasWidth  float64
	CanvasHeight float64
}

// DefaultOptions matches the client canvas.
func DefaultOptions() Options {
	return Options{CanvasWidth: 800, CanvasHeight: 600}
}

// JoinResult describes the outcome of Join.
type JoinResult struct {
	// Room is the snapshot taken right after the participant was added.
	Room        Room
	Participant Participant
	// Created is true when the room did not exist before this join.
	Created bool
	// PreviousRoom is the room the connection was moved out of, if any.
	PreviousRoom string
}

// Coordinator implements presence and object operations on a Registry.
type Coordinator struct {
	rooms *Registry
	// conns indexes connection id -> room id; written inside the room's critical section.
	conns *xsync.MapOf[string, string]
	sink  Sink
	opts  Options
	place func(opts Options) (color string, x, y float64)
	log   *zerolog.Logger
}

// New builds a coordinator. A nil sink disables durability.
func New(sink Sink, opts Options, logger *zerolog.Logger) *Coordinator {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Coordinator{
		rooms: NewRegistry(),
		conns: xsync.NewMapOf[string, string](),
		sink:  sink,
		opts:  opts,
		place: randomPlacement,
		log:   logger,
	}
}

// DefaultRoomName is the name given to lazily created rooms.
func DefaultRoomName(roomID string) string {
	return "Room " + roomID
}

func randomPlacement(opts Options) (string, float64, float64) {
	color := fmt.Sprintf("#%06x", rand.Uint32()&0xFFFFFF)
	return color, rand.Float64() * opts.CanvasWidth, rand.Float64() * opts.CanvasHeight
}

// Load seeds the registry with rooms read from the store at startup.
func (c *Coordinator) Load(rooms []Room) {
	for _, room := range rooms {
		if room.Participants == nil {
			room.Participants = []Participant{}
		}
		if room.Objects == nil {
			room.Objects = []Object{}
		}
		c.rooms.Put(room)
	}
}

// Join adds connID to roomID, creating the room when needed.
// A connection already in another room is moved out of it first.
// Joining a room the connection is already in returns the existing entry.
func (c *Coordinator) Join(roomID, name, connID string) JoinResult {
	return c.JoinAnnounce(roomID, name, connID, nil)
}

// JoinAnnounce is Join with announce called inside the room's critical
// section, after the participant is added. Events sent from announce are
// ordered against every other join of the same room. announce must not
// block or call back into the coordinator.
func (c *Coordinator) JoinAnnounce(roomID, name, connID string, announce func(JoinResult)) JoinResult {
	var res JoinResult

	if prev, ok := c.conns.Load(connID); ok && prev != roomID {
		c.removeFrom(prev, connID)
		res.PreviousRoom = prev
	}

	res.Created = c.rooms.GetOrCreate(roomID, func() Room {
		return Room{
			ID:           roomID,
			Name:         DefaultRoomName(roomID),
			Participants: []Participant{},
			Objects:      []Object{},
		}
	})

	color, x, y := c.place(c.opts)
	participant := Participant{ID: connID, Name: name, Color: color, X: x, Y: y, RoomID: roomID}

	var roomName string
	c.rooms.Update(roomID, func(room *Room) {
		if i := room.participantIndex(connID); i >= 0 {
			participant = room.Participants[i]
		} else {
			room.Participants = append(room.Participants, participant)
		}
		c.conns.Store(connID, roomID)
		roomName = room.Name
		res.Room = room.Clone()
		res.Participant = participant
		if announce != nil {
			announce(res)
		}
	})

	c.sink.SaveRoom(roomID, roomName)

	c.log.Debug().
		Str("room_id", roomID).
		Str("conn_id", connID).
		Bool("created", res.Created).
		Msg("participant joined")
	return res
}

// Leave removes the connection from whichever room holds it.
// The room is kept even when it becomes empty.
func (c *Coordinator) Leave(connID string) (string, bool) {
	roomID, ok := c.conns.Load(connID)
	if !ok {
		return "", false
	}
	if !c.removeFrom(roomID, connID) {
		return "", false
	}
	return roomID, true
}

// Disconnect releases all membership held by connID.
func (c *Coordinator) Disconnect(connID string) (string, bool) {
	return c.Leave(connID)
}

func (c *Coordinator) removeFrom(roomID, connID string) bool {
	removed := false
	c.rooms.Update(roomID, func(room *Room) {
		if i := room.participantIndex(connID); i >= 0 {
			room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)
			removed = true
		}
		c.conns.Compute(connID, func(old string, loaded bool) (string, bool) {
			return old, !loaded || old == roomID
		})
	})
	return removed
}

// RoomOf returns the room currently holding connID.
func (c *Coordinator) RoomOf(connID string) (string, bool) {
	return c.conns.Load(connID)
}

// Move updates the position of connID wherever it is.
func (c *Coordinator) Move(connID string, x, y float64) (string, bool) {
	roomID, ok := c.conns.Load(connID)
	if !ok {
		return "", false
	}

	var moved Participant
	found := false
	c.rooms.Update(roomID, func(room *Room) {
		i := room.participantIndex(connID)
		if i < 0 {
			return
		}
		room.Participants[i].X = x
		room.Participants[i].Y = y
		moved = room.Participants[i]
		found = true
	})
	if !found {
		return "", false
	}

	c.sink.SaveParticipant(moved)
	return roomID, true
}

// UpdateParticipant changes name and/or color; nil fields are left as they are.
func (c *Coordinator) UpdateParticipant(connID string, name, color *string) (string, Participant, bool) {
	roomID, ok := c.conns.Load(connID)
	if !ok {
		return "", Participant{}, false
	}

	var updated Participant
	found := false
	c.rooms.Update(roomID, func(room *Room) {
		i := room.participantIndex(connID)
		if i < 0 {
			return
		}
		if name != nil {
			room.Participants[i].Name = *name
		}
		if color != nil {
			room.Participants[i].Color = *color
		}
		updated = room.Participants[i]
		found = true
	})
	if !found {
		return "", Participant{}, false
	}
	return roomID, updated, true
}

// AddObject places obj in the room, replacing an object with the same id.
// No membership check is made; unknown rooms are ignored.
func (c *Coordinator) AddObject(roomID string, obj Object) bool {
	ok := c.rooms.Update(roomID, func(room *Room) {
		if i := room.objectIndex(obj.ID); i >= 0 {
			room.Objects[i] = obj
			return
		}
		room.Objects = append(room.Objects, obj)
	})
	if !ok {
		return false
	}
	c.sink.SaveObject(roomID, obj)
	return true
}

// UpdateObject replaces an existing object. It never inserts.
func (c *Coordinator) UpdateObject(roomID string, obj Object) bool {
	found := false
	c.rooms.Update(roomID, func(room *Room) {
		if i := room.objectIndex(obj.ID); i >= 0 {
			room.Objects[i] = obj
			found = true
		}
	})
	if !found {
		return false
	}
	c.sink.SaveObject(roomID, obj)
	return true
}

// RemoveObject deletes an object from the room.
func (c *Coordinator) RemoveObject(roomID, objectID string) bool {
	found := false
	c.rooms.Update(roomID, func(room *Room) {
		if i := room.objectIndex(objectID); i >= 0 {
			room.Objects = append(room.Objects[:i], room.Objects[i+1:]...)
			found = true
		}
	})
	if !found {
		return false
	}
	c.sink.DeleteObject(objectID)
	return true
}

// SetBackground sets or clears the room background. It is not persisted.
func (c *Coordinator) SetBackground(roomID string, url *string) bool {
	return c.rooms.Update(roomID, func(room *Room) {
		if url == nil {
			room.Background = nil
			return
		}
		bg := *url
		room.Background = &bg
	})
}

// Participant returns connID's entry in roomID.
func (c *Coordinator) Participant(roomID, connID string) (Participant, bool) {
	var p Participant
	found := false
	c.rooms.View(roomID, func(room *Room) {
		if i := room.participantIndex(connID); i >= 0 {
			p = room.Participants[i]
			found = true
		}
	})
	return p, found
}

// PostChat creates a message authored by connID in roomID.
// Only current participants of the room may post.
func (c *Coordinator) PostChat(roomID, connID, text string, now time.Time) (ChatMessage, bool) {
	author, ok := c.Participant(roomID, connID)
	if !ok {
		return ChatMessage{}, false
	}
	msg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		UserName:  author.Name,
		Text:      text,
		Timestamp: now.UnixMilli(),
	}
	c.sink.SaveMessage(roomID, msg)
	return msg, true
}

// Room returns a snapshot of one room.
func (c *Coordinator) Room(roomID string) (Room, bool) {
	return c.rooms.Get(roomID)
}

// RoomIDs returns every tracked room id.
func (c *Coordinator) RoomIDs() []string {
	return c.rooms.IDs()
}

// ActiveRooms projects the current registry into the active-rooms summary.
func (c *Coordinator) ActiveRooms() []ActiveRoom {
	return ActiveRooms(c.rooms.Snapshot())
}

// Summaries lists every tracked room with its live participant count.
func (c *Coordinator) Summaries() []RoomSummary {
	return Summaries(c.rooms.Snapshot())
}

// Stats returns the number of tracked rooms and live participants.
func (c *Coordinator) Stats() (rooms, participants int) {
	return c.rooms.Len(), c.conns.Size()
}

// NopSink discards every mutation.
type NopSink struct{}

func (NopSink) SaveRoom(string, string) {}
func (NopSink) SaveParticipant(Participant) {}
func (NopSink) SaveObject(string, Object) {}
func (NopSink) DeleteObject(string) {}
func (NopSink) SaveMessage(string, ChatMessage) {}
