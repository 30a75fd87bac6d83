package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Room is the durable part of a room. Membership and background are not stored.
type Room struct {
	ID   string
	Name string
}

// Object is a persisted canvas object. IDs are unique across rooms.
type Object struct {
	ID       string
	RoomID   string
	Type     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Content  string
	ZIndex   int
	Rotation float64
}

// Participant is the last known state of a connection.
type Participant struct {
	ID     string
	Name   string
	Color  string
	X      float64
	Y      float64
	RoomID string
}

// Message is an appended chat message. Timestamp is in milliseconds.
type Message struct {
	ID        string
	RoomID    string
	UserID    string
	UserName  string
	Text      string
	Timestamp int64
}

// Account is a registered user with a password hash.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RoomStore handles room persistence.
type RoomStore interface {
	// UpsertRoom inserts a room or renames an existing one.
	UpsertRoom(ctx context.Context, room Room) error

	// ListRooms returns every stored room.
	ListRooms(ctx context.Context) ([]Room, error)
}

// ObjectStore handles canvas object persistence.
type ObjectStore interface {
	// UpsertObject inserts or replaces an object by id.
	UpsertObject(ctx context.Context, obj Object) error

	// DeleteObject removes an object. Deleting a missing id is not an error.
	DeleteObject(ctx context.Context, id string) error

	// ListObjects returns the objects of a room.
	ListObjects(ctx context.Context, roomID string) ([]Object, error)
}

// ParticipantStore handles participant persistence.
type ParticipantStore interface {
	// UpsertParticipant inserts or replaces a participant by connection id.
	UpsertParticipant(ctx context.Context, p Participant) error
}

// MessageStore handles chat persistence.
type MessageStore interface {
	// AppendMessage stores a new message.
	AppendMessage(ctx context.Context, msg Message) error

	// ListMessages returns a room's messages ordered by timestamp ascending.
	ListMessages(ctx context.Context, roomID string) ([]Message, error)
}

// AccountStore handles account persistence.
type AccountStore interface {
	// CreateAccount stores a new account.
	CreateAccount(ctx context.Context, acc Account) error

	// GetAccountByUsername returns ErrNotFound when no account matches.
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)

	// AccountExists reports whether the username is taken.
	AccountExists(ctx context.Context, username string) (bool, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	ObjectStore
	ParticipantStore
	MessageStore
	AccountStore

	// Close closes the underlying database connection.
	Close() error
}
