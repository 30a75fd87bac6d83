package livekit

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestJoinInfoGrantsRoomJoin(t *testing.T) {
	issuer := New("devkey", "devsecret", "ws://localhost:7880")

	info, err := issuer.JoinInfo(context.Background(), "r1", "conn-1", "Alice")
	if err != nil {
		t.Fatalf("join info: %v", err)
	}
	if info.RoomName != "voicespaces-r1" || info.Identity != "conn-1" || info.URL != "ws://localhost:7880" {
		t.Fatalf("unexpected join info: %+v", info)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(info.Token, claims); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims["sub"] != "conn-1" || claims["iss"] != "devkey" {
		t.Fatalf("unexpected subject or issuer: %v", claims)
	}
	video, ok := claims["video"].(map[string]any)
	if !ok {
		t.Fatalf("token carries no video grant: %v", claims)
	}
	if video["room"] != "voicespaces-r1" || video["roomJoin"] != true {
		t.Fatalf("unexpected grant: %v", video)
	}
}

func TestJoinInfoRequiresIdentity(t *testing.T) {
	issuer := New("k", "s", "ws://x")
	if _, err := issuer.JoinInfo(context.Background(), "r1", "", ""); err == nil {
		t.Fatalf("expected error without identity")
	}
}
