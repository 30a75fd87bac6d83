package http

import (
	"encoding/json"

	"github.com/vovakirdan/voicespaces-server/internal/core"
	"github.com/vovakirdan/voicespaces-server/internal/proto"
	"github.com/vovakirdan/voicespaces-server/internal/state"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// decode unmarshals inbound data. Malformed data is reported to the
// client rather than closing the connection.
func decode(data json.RawMessage, v any) *proto.Error {
	if len(data) == 0 {
		return badRequest("data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("malformed data")
	}
	return nil
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if perr := decode(inbound.Data, &join); perr != nil {
			return nil, perr
		}
		if join.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: join.RoomID, Name: join.Name}, nil

	case proto.InboundTypeLeaveRoom:
		var leave proto.RoomData
		if perr := decode(inbound.Data, &leave); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandLeaveRoom, Room: leave.RoomID}, nil

	case proto.InboundTypeMove:
		var move proto.MoveData
		if perr := decode(inbound.Data, &move); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandMove, X: move.X, Y: move.Y}, nil

	case proto.InboundTypeUpdateUser:
		var upd proto.UpdateUserData
		if perr := decode(inbound.Data, &upd); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandUpdateUser, Room: upd.RoomID, NewName: upd.Name, Color: upd.Color}, nil

	case proto.InboundTypeAddObject, proto.InboundTypeUpdateObject:
		var data proto.ObjectData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" || data.Object == nil || data.Object.ID == "" {
			return nil, badRequest("roomId and object.id are required")
		}
		kind := core.CommandAddObject
		if inbound.Type == proto.InboundTypeUpdateObject {
			kind = core.CommandUpdateObject
		}
		return &core.Command{Kind: kind, Room: data.RoomID, Object: *data.Object}, nil

	case proto.InboundTypeRemoveObject:
		var data proto.RemoveObjectData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" || data.ObjectID == "" {
			return nil, badRequest("roomId and objectId are required")
		}
		return &core.Command{Kind: core.CommandRemoveObject, Room: data.RoomID, ObjectID: data.ObjectID}, nil

	case proto.InboundTypeUpdateRoomSettings:
		var data proto.RoomSettingsData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{Kind: core.CommandUpdateRoomSettings, Room: data.RoomID, URL: data.Background}, nil

	case proto.InboundTypeSendChat:
		var chat proto.ChatData
		if perr := decode(inbound.Data, &chat); perr != nil {
			return nil, perr
		}
		if chat.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{Kind: core.CommandSendChat, Room: chat.RoomID, Text: chat.Text}, nil

	case proto.InboundTypeDrawLine:
		var draw proto.DrawLineData
		if perr := decode(inbound.Data, &draw); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandDrawLine, Room: draw.RoomID, Payload: draw.Line}, nil

	case proto.InboundTypeShareEmbed:
		var embed proto.ShareEmbedData
		if perr := decode(inbound.Data, &embed); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandShareEmbed, Room: embed.RoomID, URL: embed.URL}, nil

	case proto.InboundTypeSendEmoji:
		var emoji proto.EmojiData
		if perr := decode(inbound.Data, &emoji); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandSendEmoji, Room: emoji.RoomID, Text: emoji.Emoji}, nil

	case proto.InboundTypeTyping, proto.InboundTypeStopTyping:
		var data proto.RoomData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		kind := core.CommandTyping
		if inbound.Type == proto.InboundTypeStopTyping {
			kind = core.CommandStopTyping
		}
		return &core.Command{Kind: kind, Room: data.RoomID}, nil

	case proto.InboundTypeSendingSignal, proto.InboundTypeReturningSignal:
		var sig proto.SignalData
		if perr := decode(inbound.Data, &sig); perr != nil {
			return nil, perr
		}
		if inbound.Type == proto.InboundTypeReturningSignal {
			if sig.CallerID == "" {
				return nil, badRequest("callerID is required")
			}
			return &core.Command{Kind: core.CommandReturnSignal, CallerID: sig.CallerID, Signal: sig.Signal}, nil
		}
		return &core.Command{
			Kind:     core.CommandSendSignal,
			Target:   sig.UserToSignal,
			CallerID: sig.CallerID,
			Signal:   sig.Signal,
		}, nil

	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func event(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventActiveRooms:
		rooms := ev.ActiveRooms
		if rooms == nil {
			rooms = []state.ActiveRoom{}
		}
		return event(proto.EventActiveRooms, rooms)
	case core.EventRoomState:
		return event(proto.EventRoomState, ev.Snapshot)
	case core.EventExistingParticipants:
		peers := ev.Peers
		if peers == nil {
			peers = []string{}
		}
		return event(proto.EventExistingParticipants, peers)
	case core.EventUserJoined:
		return event(proto.EventUserJoined, ev.Participant)
	case core.EventUserLeft:
		return event(proto.EventUserLeft, ev.User)
	case core.EventUserMoved:
		return event(proto.EventUserMoved, proto.EventUserMovedData{ID: ev.User, X: ev.X, Y: ev.Y})
	case core.EventUserUpdated:
		return event(proto.EventUserUpdated, ev.Participant)
	case core.EventObjectAdded:
		return event(proto.EventObjectAdded, ev.Object)
	case core.EventObjectUpdated:
		return event(proto.EventObjectUpdated, ev.Object)
	case core.EventObjectRemoved:
		return event(proto.EventObjectRemoved, proto.EventObjectRemovedData{ID: ev.ObjectID})
	case core.EventChatMessage:
		return event(proto.EventChatMessage, ev.Chat)
	case core.EventRoomSettingsUpdated:
		return event(proto.EventRoomSettingsUpdated, proto.EventRoomSettingsData{Background: ev.URL})
	case core.EventDrawLine:
		return event(proto.EventDrawLine, ev.Payload)
	case core.EventUpdateEmbed:
		return event(proto.EventUpdateEmbed, ev.URL)
	case core.EventEmojiReaction:
		return event(proto.EventEmojiReaction, proto.EventEmojiData{Emoji: ev.Text, UserID: ev.User})
	case core.EventUserTyping:
		return event(proto.EventUserTyping, ev.User)
	case core.EventUserStopTyping:
		return event(proto.EventUserStopTyping, ev.User)
	case core.EventUserConnected:
		return event(proto.EventUserConnected, ev.CallerID)
	case core.EventSignalReceived:
		return event(proto.EventSignalReceived, proto.EventSignalReceivedData{Signal: ev.Signal, CallerID: ev.CallerID})
	case core.EventReturnSignal:
		return event(proto.EventReturnSignal, proto.EventReturnSignalData{Signal: ev.Signal, ID: ev.User})
	case core.EventError:
		if ev.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
