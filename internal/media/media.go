// Package media issues credentials for the optional SFU audio/video path.
// The mesh signaling relay in core works without it.
package media

import (
	"context"
	"errors"
)

// ErrDisabled is returned when no media backend is configured.
var ErrDisabled = errors.New("media backend not configured")

// JoinInfo contains what a client needs to join a room's media session.
type JoinInfo struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	RoomName string `json:"room_name"`
	Identity string `json:"identity"`
}

// Issuer creates media credentials for a participant of a room.
type Issuer interface {
	JoinInfo(ctx context.Context, roomID, identity, name string) (*JoinInfo, error)
}

// Disabled is the Issuer used when no backend is configured.
type Disabled struct{}

// JoinInfo always fails with ErrDisabled.
func (Disabled) JoinInfo(context.Context, string, string, string) (*JoinInfo, error) {
	return nil, ErrDisabled
}
