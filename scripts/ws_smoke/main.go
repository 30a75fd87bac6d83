package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/voicespaces-server/internal/proto"
	"github.com/vovakirdan/voicespaces-server/internal/state"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:7860/ws", "WebSocket address")
	name := flag.String("name", "tester", "display name to join with")
	room := flag.String("room", "lobby", "room id")
	text := flag.String("text", "hello from smoke test", "chat text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomID: *room, Name: *name}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeMove, proto.MoveData{X: 100, Y: 120}); err != nil {
		return err
	}
	note := &state.Object{ID: fmt.Sprintf("smoke-%d", time.Now().UnixNano()), Type: "note", Width: 120, Height: 80, Content: "smoke"}
	if err := send(proto.InboundTypeAddObject, proto.ObjectData{RoomID: *room, Object: note}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeSendChat, proto.ChatData{RoomID: *room, Text: *text}); err != nil {
		return err
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if out.Error != nil {
			fmt.Printf("error: code=%s msg=%s\n", out.Error.Code, out.Error.Msg)
			continue
		}
		fmt.Printf("event=%s data=%s\n", out.Event, out.Data)

		if out.Event != proto.EventChatMessage {
			continue
		}
		var msg state.ChatMessage
		if err := json.Unmarshal(out.Data, &msg); err != nil {
			return fmt.Errorf("unmarshal chat: %w", err)
		}
		if msg.Text == *text {
			fmt.Printf("chat echoed: user=%s name=%s ts=%d\n", msg.UserID, msg.UserName, msg.Timestamp)
			return nil
		}
	}
}
