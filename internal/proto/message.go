package proto

import (
	"encoding/json"

	"github.com/vovakirdan/voicespaces-server/internal/state"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom           = "join_room"
	InboundTypeLeaveRoom          = "leave_room"
	InboundTypeMove               = "move"
	InboundTypeUpdateUser         = "update_user"
	InboundTypeAddObject          = "add_object"
	InboundTypeUpdateObject       = "update_object"
	InboundTypeRemoveObject       = "remove_object"
	InboundTypeUpdateRoomSettings = "update_room_settings"
	InboundTypeSendChat           = "send_chat"
	InboundTypeDrawLine           = "draw_line"
	InboundTypeShareEmbed         = "share_embed"
	InboundTypeSendEmoji          = "send_emoji"
	InboundTypeTyping             = "typing"
	InboundTypeStopTyping         = "stop_typing"
	InboundTypeSendingSignal      = "sending_signal"
	InboundTypeReturningSignal    = "returning_signal"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventActiveRooms          = "active_rooms"
	EventRoomState            = "room_state"
	EventExistingParticipants = "existing_participants"
	EventUserJoined           = "user_joined"
	EventUserLeft             = "user_left"
	EventUserMoved            = "user_moved"
	EventUserUpdated          = "user_updated"
	EventObjectAdded          = "object_added"
	EventObjectUpdated        = "object_updated"
	EventObjectRemoved        = "object_removed"
	EventChatMessage          = "chat_message"
	EventRoomSettingsUpdated  = "room_settings_updated"
	EventDrawLine             = "draw_line"
	EventUpdateEmbed          = "update_embed"
	EventEmojiReaction        = "emoji_reaction"
	EventUserTyping           = "user_typing"
	EventUserStopTyping       = "user_stop_typing"
	EventUserConnected        = "user_connected"
	EventSignalReceived       = "signal_received"
	EventReturnSignal         = "return_signal"
)

// JoinRoomData asks to enter a room under a display name.
type JoinRoomData struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// RoomData carries just a room id (leave_room, typing, stop_typing).
type RoomData struct {
	RoomID string `json:"roomId"`
}

// MoveData is a new avatar position.
type MoveData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UpdateUserData renames and/or recolors the sender.
type UpdateUserData struct {
	RoomID string  `json:"roomId,omitempty"`
	Name   *string `json:"name,omitempty"`
	Color  *string `json:"color,omitempty"`
}

// ObjectData carries a full object for add_object and update_object.
type ObjectData struct {
	RoomID string        `json:"roomId"`
	Object *state.Object `json:"object"`
}

// RemoveObjectData names the object to delete.
type RemoveObjectData struct {
	RoomID   string `json:"roomId"`
	ObjectID string `json:"objectId"`
}

// RoomSettingsData sets or clears the background.
type RoomSettingsData struct {
	RoomID     string  `json:"roomId"`
	Background *string `json:"background"`
}

// ChatData is a chat message from the client.
type ChatData struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// DrawLineData is an opaque canvas stroke.
type DrawLineData struct {
	RoomID string          `json:"roomId"`
	Line   json.RawMessage `json:"line"`
}

// ShareEmbedData shares or clears an embed url.
type ShareEmbedData struct {
	RoomID string  `json:"roomId"`
	URL    *string `json:"url"`
}

// EmojiData is an emoji reaction.
type EmojiData struct {
	RoomID string `json:"roomId"`
	Emoji  string `json:"emoji"`
}

// SignalData is a WebRTC signaling payload relayed verbatim.
type SignalData struct {
	UserToSignal string          `json:"userToSignal,omitempty"`
	CallerID     string          `json:"callerID"`
	Signal       json.RawMessage `json:"signal"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventUserMovedData reports a position change.
type EventUserMovedData struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// EventObjectRemovedData names a deleted object.
type EventObjectRemovedData struct {
	ID string `json:"id"`
}

// EventRoomSettingsData reports the current background.
type EventRoomSettingsData struct {
	Background *string `json:"background"`
}

// EventEmojiData is a relayed emoji reaction.
type EventEmojiData struct {
	Emoji  string `json:"emoji"`
	UserID string `json:"userId"`
}

// EventSignalReceivedData is a relayed WebRTC offer.
type EventSignalReceivedData struct {
	Signal   json.RawMessage `json:"signal"`
	CallerID string          `json:"callerID"`
}

// EventReturnSignalData is a relayed WebRTC answer.
type EventReturnSignalData struct {
	Signal json.RawMessage `json:"signal"`
	ID     string          `json:"id"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
