package core

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicespaces-server/internal/metrics"
	"github.com/vovakirdan/voicespaces-server/internal/state"
	"github.com/vovakirdan/voicespaces-server/internal/store"
)

// HistoryReader loads the stored chat of a room.
type HistoryReader interface {
	ListMessages(ctx context.Context, roomID string) ([]store.Message, error)
}

// Hub routes client commands to the room state and fans events out to
// connected clients. Each registered client gets its own goroutine, so
// commands from different connections run concurrently; the coordinator
// serializes them per room.
type Hub struct {
	state   *state.Coordinator
	history HistoryReader
	metrics *metrics.Metrics
	log     *zerolog.Logger

	clients *xsync.MapOf[string, *Client]
	groups  *xsync.MapOf[string, *group]

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// NewHub creates a hub. history may be nil to skip chat replay on join.
func NewHub(coord *state.Coordinator, history HistoryReader, m *metrics.Metrics, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		state:   coord,
		history: history,
		metrics: m,
		log:     logger,
		clients: xsync.NewMapOf[string, *Client](),
		groups:  xsync.NewMapOf[string, *group](),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Run blocks until ctx is cancelled, refreshing gauges periodically.
// Client goroutines stop when it returns.
func (h *Hub) Run(ctx context.Context) {
	defer h.cancel()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.refreshGauges()
		}
	}
}

// RegisterClient starts serving the client's commands and sends
// everyone the current active rooms.
func (h *Hub) RegisterClient(c *Client) {
	h.clients.Store(c.ID, c)
	h.metrics.SetConnectedClients(h.clients.Size())

	go h.serve(c)

	h.log.Debug().Str("conn_id", c.ID).Msg("client registered")
	h.broadcastActiveRooms()
}

// UnregisterClient stops the client. Its membership is released
// asynchronously once the command in flight, if any, completes.
func (h *Hub) UnregisterClient(c *Client) {
	c.close()
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	return h.clients.Size()
}

func (h *Hub) serve(c *Client) {
	defer h.disconnect(c)

	for {
		select {
		case <-c.done:
			return
		case <-h.ctx.Done():
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			h.metrics.Command(cmd.Kind.String())
			h.handle(c, cmd)
		}
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.join(c, cmd)
	case CommandLeaveRoom:
		h.leave(c, cmd)
	case CommandMove:
		h.move(c, cmd)
	case CommandUpdateUser:
		h.updateUser(c, cmd)
	case CommandAddObject:
		if h.state.AddObject(cmd.Room, cmd.Object) {
			obj := cmd.Object
			h.toRoom(cmd.Room, &Event{Kind: EventObjectAdded, Room: cmd.Room, Object: &obj}, c.ID)
		}
	case CommandUpdateObject:
		if h.state.UpdateObject(cmd.Room, cmd.Object) {
			obj := cmd.Object
			h.toRoom(cmd.Room, &Event{Kind: EventObjectUpdated, Room: cmd.Room, Object: &obj}, c.ID)
		}
	case CommandRemoveObject:
		if h.state.RemoveObject(cmd.Room, cmd.ObjectID) {
			h.toRoom(cmd.Room, &Event{Kind: EventObjectRemoved, Room: cmd.Room, ObjectID: cmd.ObjectID}, c.ID)
		}
	case CommandUpdateRoomSettings:
		if h.state.SetBackground(cmd.Room, cmd.URL) {
			h.toRoom(cmd.Room, &Event{Kind: EventRoomSettingsUpdated, Room: cmd.Room, URL: cmd.URL}, c.ID)
		}
	case CommandSendChat:
		if msg, ok := h.state.PostChat(cmd.Room, c.ID, cmd.Text, h.now()); ok {
			h.toRoom(cmd.Room, &Event{Kind: EventChatMessage, Room: cmd.Room, User: c.ID, Chat: &msg}, "")
		}
	case CommandDrawLine:
		h.toRoom(cmd.Room, &Event{Kind: EventDrawLine, Room: cmd.Room, User: c.ID, Payload: cmd.Payload}, c.ID)
	case CommandShareEmbed:
		h.toRoom(cmd.Room, &Event{Kind: EventUpdateEmbed, Room: cmd.Room, User: c.ID, URL: cmd.URL}, c.ID)
	case CommandSendEmoji:
		h.toRoom(cmd.Room, &Event{Kind: EventEmojiReaction, Room: cmd.Room, User: c.ID, Text: cmd.Text}, c.ID)
	case CommandTyping:
		h.toRoom(cmd.Room, &Event{Kind: EventUserTyping, Room: cmd.Room, User: c.ID}, c.ID)
	case CommandStopTyping:
		h.toRoom(cmd.Room, &Event{Kind: EventUserStopTyping, Room: cmd.Room, User: c.ID}, c.ID)
	case CommandSendSignal:
		if cmd.Target == "" {
			return
		}
		h.toClient(cmd.Target, &Event{Kind: EventUserConnected, User: c.ID, CallerID: cmd.CallerID})
		h.toClient(cmd.Target, &Event{Kind: EventSignalReceived, User: c.ID, CallerID: cmd.CallerID, Signal: cmd.Signal})
	case CommandReturnSignal:
		h.toClient(cmd.CallerID, &Event{Kind: EventReturnSignal, User: c.ID, Signal: cmd.Signal})
	default:
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeInvalidMessage, "unknown command")})
	}
}

func (h *Hub) join(c *Client, cmd *Command) {
	if cmd.Room == "" {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "room is required")})
		return
	}

	// c must be in the group before the registry holds it, so a concurrent
	// joiner either is in c's snapshot or announces itself to c afterwards.
	h.joinGroup(cmd.Room, c)
	res := h.state.JoinAnnounce(cmd.Room, cmd.Name, c.ID, func(res state.JoinResult) {
		snapshot := res.Room
		participant := res.Participant
		c.send(&Event{Kind: EventRoomState, Room: cmd.Room, Snapshot: &snapshot})
		h.toRoom(cmd.Room, &Event{Kind: EventUserJoined, Room: cmd.Room, User: c.ID, Participant: &participant}, c.ID)
	})
	if res.PreviousRoom != "" {
		h.leaveGroup(res.PreviousRoom, c)
	}

	h.broadcastActiveRooms()
	c.send(&Event{Kind: EventExistingParticipants, Room: cmd.Room, Peers: state.PeerIDs(res.Room, c.ID)})

	if res.Created {
		h.refreshGauges()
	}
	if h.history != nil {
		go h.replayHistory(c, cmd.Room)
	}

	h.log.Info().
		Str("conn_id", c.ID).
		Str("room_id", cmd.Room).
		Str("previous_room", res.PreviousRoom).
		Msg("joined room")
}

func (h *Hub) replayHistory(c *Client, roomID string) {
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	messages, err := h.history.ListMessages(ctx, roomID)
	if err != nil {
		h.log.Warn().Err(err).Str("room_id", roomID).Msg("load chat history")
		return
	}
	for _, m := range messages {
		msg := state.ChatMessage{
			ID:        m.ID,
			UserID:    m.UserID,
			UserName:  m.UserName,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		}
		select {
		case <-c.done:
			return
		default:
		}
		c.send(&Event{Kind: EventChatMessage, Room: roomID, User: m.UserID, Chat: &msg})
	}
}

func (h *Hub) leave(c *Client, cmd *Command) {
	roomID, ok := h.state.Leave(c.ID)
	if !ok {
		roomID = cmd.Room
	}
	if roomID == "" {
		return
	}
	h.leaveGroup(roomID, c)
	h.broadcastActiveRooms()

	h.log.Info().Str("conn_id", c.ID).Str("room_id", roomID).Msg("left room")
}

func (h *Hub) move(c *Client, cmd *Command) {
	roomID, ok := h.state.Move(c.ID, cmd.X, cmd.Y)
	if !ok {
		return
	}
	h.toRoom(roomID, &Event{Kind: EventUserMoved, Room: roomID, User: c.ID, X: cmd.X, Y: cmd.Y}, c.ID)
}

func (h *Hub) updateUser(c *Client, cmd *Command) {
	roomID, p, ok := h.state.UpdateParticipant(c.ID, cmd.NewName, cmd.Color)
	if !ok {
		return
	}
	ev := &Event{Kind: EventUserUpdated, Room: roomID, User: c.ID, Participant: &p}
	h.toRoom(roomID, ev, c.ID)
	c.send(ev)
}

// disconnect releases everything held by c. The departure is announced
// to every room, not only the one the registry had c in.
func (h *Hub) disconnect(c *Client) {
	c.close()
	h.clients.Delete(c.ID)
	h.metrics.SetConnectedClients(h.clients.Size())

	roomID, _ := h.state.Disconnect(c.ID)

	h.groups.Range(func(id string, _ *group) bool {
		h.leaveGroup(id, c)
		return true
	})
	h.broadcastActiveRooms()

	h.log.Info().Str("conn_id", c.ID).Str("room_id", roomID).Msg("client disconnected")
}

func (h *Hub) joinGroup(roomID string, c *Client) {
	h.groups.Compute(roomID, func(g *group, loaded bool) (*group, bool) {
		if !loaded {
			g = newGroup(roomID)
		}
		g.add(c)
		return g, false
	})
}

// leaveGroup removes c from the room's group and tells the rest.
// Empty groups are dropped.
func (h *Hub) leaveGroup(roomID string, c *Client) {
	var remaining *group
	h.groups.Compute(roomID, func(g *group, loaded bool) (*group, bool) {
		if !loaded {
			return g, true
		}
		g.remove(c)
		if g.empty() {
			return g, true
		}
		remaining = g
		return g, false
	})
	if remaining != nil {
		remaining.broadcast(&Event{Kind: EventUserLeft, Room: roomID, User: c.ID}, c.ID)
	}
}

func (h *Hub) toRoom(roomID string, ev *Event, except string) {
	g, ok := h.groups.Load(roomID)
	if !ok {
		return
	}
	if dropped := g.broadcast(ev, except); dropped > 0 {
		h.log.Debug().
			Str("room_id", roomID).
			Int("dropped", dropped).
			Msg("slow clients dropped event")
	}
}

func (h *Hub) toClient(id string, ev *Event) {
	if target, ok := h.clients.Load(id); ok {
		target.send(ev)
	}
}

func (h *Hub) broadcastActiveRooms() {
	ev := &Event{Kind: EventActiveRooms, ActiveRooms: h.state.ActiveRooms()}
	h.clients.Range(func(_ string, c *Client) bool {
		c.send(ev)
		return true
	})
}

func (h *Hub) refreshGauges() {
	rooms, _ := h.state.Stats()
	h.metrics.SetTrackedRooms(rooms)
	h.metrics.SetConnectedClients(h.clients.Size())
}
