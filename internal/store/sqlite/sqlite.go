package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/voicespaces-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// Open connects to the database without touching the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// New opens the database and applies migrations.
// dbPath may be ":memory:" for tests.
func New(dbPath string) (*SQLiteStore, error) {
	s, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RoomStore implementation ====

// UpsertRoom inserts a room or renames an existing one.
func (s *SQLiteStore) UpsertRoom(ctx context.Context, room store.Room) error {
	query := `
		INSERT INTO rooms (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`
	if _, err := s.db.ExecContext(ctx, query, room.ID, room.Name); err != nil {
		return fmt.Errorf("upsert room: %w", err)
	}
	return nil
}

// ListRooms returns every stored room.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]store.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []store.Room
	for rows.Next() {
		var room store.Room
		if err := rows.Scan(&room.ID, &room.Name); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

// ==== ObjectStore implementation ====

// UpsertObject inserts or replaces an object by id.
func (s *SQLiteStore) UpsertObject(ctx context.Context, obj store.Object) error {
	query := `
		INSERT INTO room_objects (id, room_id, type, x, y, width, height, content, z_index, rotation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			x = excluded.x,
			y = excluded.y,
			width = excluded.width,
			height = excluded.height,
			content = excluded.content,
			z_index = excluded.z_index,
			rotation = excluded.rotation
	`
	_, err := s.db.ExecContext(ctx, query,
		obj.ID, obj.RoomID, obj.Type,
		obj.X, obj.Y, obj.Width, obj.Height,
		obj.Content, obj.ZIndex, obj.Rotation,
	)
	if err != nil {
		return fmt.Errorf("upsert object: %w", err)
	}
	return nil
}

// DeleteObject removes an object by id.
func (s *SQLiteStore) DeleteObject(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM room_objects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// ListObjects returns the objects of a room.
func (s *SQLiteStore) ListObjects(ctx context.Context, roomID string) ([]store.Object, error) {
	query := `
		SELECT id, room_id, type, x, y, width, height, content, z_index, rotation
		FROM room_objects
		WHERE room_id = ?
		ORDER BY rowid
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var objects []store.Object
	for rows.Next() {
		var obj store.Object
		if err := rows.Scan(
			&obj.ID,
			&obj.RoomID,
			&obj.Type,
			&obj.X,
			&obj.Y,
			&obj.Width,
			&obj.Height,
			&obj.Content,
			&obj.ZIndex,
			&obj.Rotation,
		); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return objects, nil
}

// ==== ParticipantStore implementation ====

// UpsertParticipant inserts or replaces a participant by connection id.
func (s *SQLiteStore) UpsertParticipant(ctx context.Context, p store.Participant) error {
	query := `
		INSERT INTO participants (id, name, color, x, y, room_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			x = excluded.x,
			y = excluded.y,
			room_id = excluded.room_id
	`
	if _, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Color, p.X, p.Y, p.RoomID); err != nil {
		return fmt.Errorf("upsert participant: %w", err)
	}
	return nil
}

// getParticipant is used by tests to read back participant rows.
func (s *SQLiteStore) getParticipant(ctx context.Context, id string) (*store.Participant, error) {
	var p store.Participant
	var roomID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, x, y, room_id FROM participants WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Color, &p.X, &p.Y, &roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query participant: %w", err)
	}
	p.RoomID = roomID.String
	return &p, nil
}

// ==== MessageStore implementation ====

// AppendMessage stores a new message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg store.Message) error {
	query := `
		INSERT INTO messages (id, room_id, user_id, user_name, text, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, msg.ID, msg.RoomID, msg.UserID, msg.UserName, msg.Text, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns a room's messages ordered by timestamp ascending.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string) ([]store.Message, error) {
	query := `
		SELECT id, room_id, user_id, user_name, text, timestamp
		FROM messages
		WHERE room_id = ?
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.UserName, &msg.Text, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ==== AccountStore implementation ====

// CreateAccount stores a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, acc store.Account) error {
	query := `
		INSERT INTO accounts (id, username, password_hash)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, acc.ID, acc.Username, acc.PasswordHash); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccountByUsername retrieves an account by username.
func (s *SQLiteStore) GetAccountByUsername(ctx context.Context, username string) (*store.Account, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM accounts
		WHERE username = ?
	`
	var acc store.Account
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&acc.ID,
		&acc.Username,
		&acc.PasswordHash,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &acc, nil
}

// AccountExists reports whether the username is taken.
func (s *SQLiteStore) AccountExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE username = ?)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return exists, nil
}
