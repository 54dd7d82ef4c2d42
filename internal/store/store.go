package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andikafarhan/coretan/internal/domain"
)

// ErrRoomNotFound is returned when a room code has no durable record
var ErrRoomNotFound = errors.New("store: room not found")

// Store is the durable home of rooms and their drawing logs. The sync
// engine treats it as append/replace-only and never caches the log
// beyond the initial load for a join response.
type Store struct {
	db *sql.DB
}

// RoomState is what a joiner needs to reconstruct the canvas
type RoomState struct {
	Code        string
	ActiveUsers int
	DrawingLog  []domain.DrawingCommand
}

// RoomInfo is the metadata view served by the room lookup API
type RoomInfo struct {
	Code         string    `json:"roomCode"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	ActiveUsers  int       `json:"activeUsers"`
	CommandCount int       `json:"drawingDataCount"`
}

// New opens (or creates) the sqlite database at dbPath
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Printf("Store initialized at %s", dbPath)
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		code TEXT PRIMARY KEY,
		active_users INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_activity DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_last_activity ON rooms(last_activity);

	CREATE TABLE IF NOT EXISTS drawing_commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_code TEXT NOT NULL,
		command TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_drawing_commands_room ON drawing_commands(room_code);
	`

	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRoom inserts a room record; existing rooms are left untouched
func (s *Store) CreateRoom(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO rooms (code) VALUES (?)",
		code,
	)
	return err
}

// RoomExists reports whether a room record exists for the code
func (s *Store) RoomExists(ctx context.Context, code string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rooms WHERE code = ?",
		code,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// LoadRoom returns the room's drawing log and persisted active count,
// or ErrRoomNotFound
func (s *Store) LoadRoom(ctx context.Context, code string) (*RoomState, error) {
	var state RoomState
	err := s.db.QueryRowContext(ctx,
		"SELECT code, active_users FROM rooms WHERE code = ?",
		code,
	).Scan(&state.Code, &state.ActiveUsers)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT command FROM drawing_commands WHERE room_code = ? ORDER BY id ASC",
		code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	state.DrawingLog = make([]domain.DrawingCommand, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var cmd domain.DrawingCommand
		if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
			return nil, err
		}
		state.DrawingLog = append(state.DrawingLog, cmd)
	}
	return &state, rows.Err()
}

// AppendStroke adds one stroke command to the end of the room's log
func (s *Store) AppendStroke(ctx context.Context, code string, cmd domain.DrawingCommand) error {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO drawing_commands (room_code, command) VALUES (?, ?)",
		code, string(raw),
	)
	if err != nil {
		return err
	}

	return s.touchActivity(ctx, code)
}

// ResetLog replaces the room's entire log with the single clear
// command, atomically, so replay never mixes old strokes with a clear
func (s *Store) ResetLog(ctx context.Context, code string, clear domain.DrawingCommand) error {
	raw, err := json.Marshal(clear)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM drawing_commands WHERE room_code = ?", code,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO drawing_commands (room_code, command) VALUES (?, ?)",
		code, string(raw),
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE rooms SET last_activity = CURRENT_TIMESTAMP WHERE code = ?", code,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// SetActiveUsers persists the recomputed membership count
func (s *Store) SetActiveUsers(ctx context.Context, code string, count int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE rooms SET active_users = ?, last_activity = CURRENT_TIMESTAMP WHERE code = ?",
		count, code,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// RoomInfo returns metadata for the room lookup API
func (s *Store) RoomInfo(ctx context.Context, code string) (*RoomInfo, error) {
	var info RoomInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT r.code, r.created_at, r.last_activity, r.active_users,
			(SELECT COUNT(*) FROM drawing_commands d WHERE d.room_code = r.code)
		FROM rooms r WHERE r.code = ?
	`, code).Scan(&info.Code, &info.CreatedAt, &info.LastActivity, &info.ActiveUsers, &info.CommandCount)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteIdleRooms removes rooms whose last activity predates cutoff,
// along with their drawing logs. Returns how many rooms were deleted.
func (s *Store) DeleteIdleRooms(ctx context.Context, cutoff time.Time) (int, error) {
	// last_activity is CURRENT_TIMESTAMP text, so compare in the same format
	bound := cutoff.UTC().Format("2006-01-02 15:04:05")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM drawing_commands WHERE room_code IN (
			SELECT code FROM rooms WHERE last_activity < ?
		)
	`, bound); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM rooms WHERE last_activity < ?", bound,
	)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(deleted), nil
}

func (s *Store) touchActivity(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE rooms SET last_activity = CURRENT_TIMESTAMP WHERE code = ?",
		code,
	)
	return err
}
