package core

import (
	"encoding/json"

	"github.com/vovakirdan/voicespaces-server/internal/state"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom places the client in a room, moving it out of any other.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom removes the client from its room.
	CommandLeaveRoom
	// CommandMove updates the client's position.
	CommandMove
	// CommandUpdateUser renames and/or recolors the client.
	CommandUpdateUser
	// CommandAddObject places or overwrites a shared object.
	CommandAddObject
	// CommandUpdateObject replaces an existing shared object.
	CommandUpdateObject
	// CommandRemoveObject deletes a shared object.
	CommandRemoveObject
	// CommandUpdateRoomSettings sets or clears the room background.
	CommandUpdateRoomSettings
	// CommandSendChat posts a chat message to the room.
	CommandSendChat

	// Relays below do not touch room state.

	// CommandDrawLine forwards a canvas stroke.
	CommandDrawLine
	// CommandShareEmbed forwards an embed url (nil clears it).
	CommandShareEmbed
	// CommandSendEmoji forwards an emoji reaction.
	CommandSendEmoji
	// CommandTyping announces that the client is typing.
	CommandTyping
	// CommandStopTyping announces that the client stopped typing.
	CommandStopTyping
	// CommandSendSignal forwards a WebRTC offer to one connection.
	CommandSendSignal
	// CommandReturnSignal answers a WebRTC offer.
	CommandReturnSignal
)

var commandNames = [...]string{
	CommandJoinRoom:           "join_room",
	CommandLeaveRoom:          "leave_room",
	CommandMove:               "move",
	CommandUpdateUser:         "update_user",
	CommandAddObject:          "add_object",
	CommandUpdateObject:       "update_object",
	CommandRemoveObject:       "remove_object",
	CommandUpdateRoomSettings: "update_room_settings",
	CommandSendChat:           "send_chat",
	CommandDrawLine:           "draw_line",
	CommandShareEmbed:         "share_embed",
	CommandSendEmoji:          "send_emoji",
	CommandTyping:             "typing",
	CommandStopTyping:         "stop_typing",
	CommandSendSignal:         "sending_signal",
	CommandReturnSignal:       "returning_signal",
}

func (k CommandKind) String() string {
	if k >= 0 && int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// Command represents an action requested by a client.
// Only the fields relevant to Kind are set.
type Command struct {
	Kind CommandKind
	Room string

	// join_room
	Name string

	// move
	X, Y float64

	// update_user; nil leaves the field unchanged
	NewName *string
	Color   *string

	// add_object, update_object
	Object state.Object
	// remove_object
	ObjectID string

	// update_room_settings, share_embed
	URL *string

	// send_chat, send_emoji
	Text string

	// draw_line
	Payload json.RawMessage

	// sending_signal, returning_signal
	Target   string
	CallerID string
	Signal   json.RawMessage
}
