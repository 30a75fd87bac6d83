package livekit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/vovakirdan/voicespaces-server/internal/media"
)

// Issuer implements media.Issuer with LiveKit access tokens.
// LiveKit creates rooms on demand when the first participant joins.
type Issuer struct {
	apiKey    string
	apiSecret string
	wsURL     string
	ttl       time.Duration
}

var _ media.Issuer = (*Issuer)(nil)

// New creates a LiveKit issuer.
func New(apiKey, apiSecret, wsURL string) *Issuer {
	return &Issuer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
		ttl:       time.Hour,
	}
}

// RoomName maps a voicespaces room id to its LiveKit room.
func RoomName(roomID string) string {
	return "voicespaces-" + roomID
}

// JoinInfo creates a room-join token for identity.
func (i *Issuer) JoinInfo(_ context.Context, roomID, identity, name string) (*media.JoinInfo, error) {
	if roomID == "" || identity == "" {
		return nil, errors.New("room and identity are required")
	}
	if name == "" {
		name = identity
	}

	roomName := RoomName(roomID)

	at := auth.NewAccessToken(i.apiKey, i.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(i.ttl)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &media.JoinInfo{
		URL:      i.wsURL,
		Token:    token,
		RoomName: roomName,
		Identity: identity,
	}, nil
}
