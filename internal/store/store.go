// Package store keeps controller snapshots in named save slots backed by
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Versifine/ledge/internal/controller"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("save slot not found")

const schema = `CREATE TABLE IF NOT EXISTS save_slots (
	slot       TEXT PRIMARY KEY,
	pos_x      REAL NOT NULL,
	pos_y      REAL NOT NULL,
	rotation   REAL NOT NULL,
	vel_x      REAL NOT NULL,
	vel_y      REAL NOT NULL,
	grounded   INTEGER NOT NULL,
	saved_at   INTEGER NOT NULL
)`

// Slot describes a stored snapshot.
type Slot struct {
	Name    string
	SavedAt time.Time
}

type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the save database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save writes state to slot, replacing what was there.
func (s *Store) Save(ctx context.Context, slot string, state controller.ControllerState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errors.New("storage is not configured")
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return errors.New("slot name is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO save_slots (slot, pos_x, pos_y, rotation, vel_x, vel_y, grounded, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   pos_x = excluded.pos_x,
		   pos_y = excluded.pos_y,
		   rotation = excluded.rotation,
		   vel_x = excluded.vel_x,
		   vel_y = excluded.vel_y,
		   grounded = excluded.grounded,
		   saved_at = excluded.saved_at`,
		slot,
		state.Position.X,
		state.Position.Y,
		state.Rotation,
		state.Velocity.X,
		state.Velocity.Y,
		boolToInt(state.Grounded),
		toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save slot %q: %w", slot, err)
	}
	return nil
}

// Load reads slot. It returns ErrNotFound when nothing was saved there.
func (s *Store) Load(ctx context.Context, slot string) (controller.ControllerState, error) {
	if err := ctx.Err(); err != nil {
		return controller.ControllerState{}, err
	}
	if s == nil || s.sqlDB == nil {
		return controller.ControllerState{}, errors.New("storage is not configured")
	}

	var (
		state    controller.ControllerState
		grounded int64
	)
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT pos_x, pos_y, rotation, vel_x, vel_y, grounded FROM save_slots WHERE slot = ?`,
		strings.TrimSpace(slot),
	)
	err := row.Scan(
		&state.Position.X,
		&state.Position.Y,
		&state.Rotation,
		&state.Velocity.X,
		&state.Velocity.Y,
		&grounded,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return controller.ControllerState{}, ErrNotFound
	}
	if err != nil {
		return controller.ControllerState{}, fmt.Errorf("load slot %q: %w", slot, err)
	}
	state.Grounded = grounded != 0
	return state, nil
}

// Slots lists saved slots, most recent first.
func (s *Store) Slots(ctx context.Context) ([]Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, errors.New("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT slot, saved_at FROM save_slots ORDER BY saved_at DESC, slot ASC`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var (
			name    string
			savedAt int64
		)
		if err := rows.Scan(&name, &savedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out = append(out, Slot{Name: name, SavedAt: fromMillis(savedAt)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errors.New("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM save_slots WHERE slot = ?`, strings.TrimSpace(slot))
	if err != nil {
		return fmt.Errorf("delete slot %q: %w", slot, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot %q: %w", slot, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
