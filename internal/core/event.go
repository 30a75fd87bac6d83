package core

import (
	"encoding/json"

	"github.com/vovakirdan/voicespaces-server/internal/state"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventActiveRooms carries the process-wide active rooms summary.
	EventActiveRooms EventKind = iota
	// EventRoomState delivers the full room snapshot to a joining client.
	EventRoomState
	// EventExistingParticipants lists the other members for peer bootstrap.
	EventExistingParticipants
	// EventUserJoined notifies a room about a new participant.
	EventUserJoined
	// EventUserLeft notifies a room that a connection left.
	EventUserLeft
	// EventUserMoved notifies a room about a position change.
	EventUserMoved
	// EventUserUpdated notifies a room about a name or color change.
	EventUserUpdated
	// EventObjectAdded notifies a room about a new or overwritten object.
	EventObjectAdded
	// EventObjectUpdated notifies a room about a changed object.
	EventObjectUpdated
	// EventObjectRemoved notifies a room that an object was deleted.
	EventObjectRemoved
	// EventChatMessage delivers a chat message, live or from history.
	EventChatMessage
	// EventRoomSettingsUpdated notifies a room about a background change.
	EventRoomSettingsUpdated
	// EventDrawLine relays a canvas stroke.
	EventDrawLine
	// EventUpdateEmbed relays an embed url.
	EventUpdateEmbed
	// EventEmojiReaction relays an emoji reaction.
	EventEmojiReaction
	// EventUserTyping relays a typing indicator.
	EventUserTyping
	// EventUserStopTyping relays the end of a typing indicator.
	EventUserStopTyping
	// EventUserConnected tells a peer that a caller wants to connect.
	EventUserConnected
	// EventSignalReceived relays a WebRTC offer to its target.
	EventSignalReceived
	// EventReturnSignal relays a WebRTC answer to the caller.
	EventReturnSignal
	// EventError notifies a client about a rejected command.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	Room string
	// User is the connection the event is about.
	User string

	Participant *state.Participant
	Snapshot    *state.Room
	ActiveRooms []state.ActiveRoom
	Peers       []string

	X, Y float64

	Object   *state.Object
	ObjectID string

	Chat *state.ChatMessage

	// Background or embed url; nil means cleared.
	URL *string

	// Emoji for EventEmojiReaction.
	Text string

	Payload  json.RawMessage
	Signal   json.RawMessage
	CallerID string

	Error *CoreError
}
