package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/denmalbas007/draw-together/internal/board"
)

// SQLiteStore is the single-node default backend, matching the service's
// original file-based database.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLite opens (or creates) the database file and its schema.
func NewSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = "./data/drawings.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		password_hash TEXT DEFAULT '',
		data          TEXT NOT NULL,
		created_at    REAL NOT NULL,
		updated_at    REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_updated_at ON rooms(updated_at);

	CREATE TABLE IF NOT EXISTS gallery (
		id         TEXT PRIMARY KEY,
		room_id    TEXT NOT NULL,
		title      TEXT NOT NULL,
		author     TEXT NOT NULL,
		image_data TEXT NOT NULL,
		likes      INTEGER NOT NULL DEFAULT 0,
		created_at REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gallery_created_at ON gallery(created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Close() { _ = s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// LoadRoom fetches one room snapshot; ErrNotFound when the row is absent.
func (s *SQLiteStore) LoadRoom(ctx context.Context, id string) (*RoomSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash, data, created_at, updated_at
		FROM rooms WHERE id = ?
	`, id)

	snap := &RoomSnapshot{}
	var data []byte
	if err := row.Scan(&snap.ID, &snap.Name, &snap.PasswordHash, &data, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := decodeBlob(data, snap); err != nil {
		return nil, fmt.Errorf("room %s: %w", id, err)
	}
	return snap, nil
}

// SaveRoom upserts a snapshot, bumping updated_at.
func (s *SQLiteStore) SaveRoom(ctx context.Context, snap *RoomSnapshot) error {
	data, err := encodeBlob(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO rooms (id, name, password_hash, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Name, snap.PasswordHash, data, snap.CreatedAt, board.Now())
	if err != nil {
		return err
	}
	s.log.Info("room.saved", "id", snap.ID, "strokes", len(snap.Strokes))
	return nil
}

// ListRooms returns rooms sorted by last update.
func (s *SQLiteStore) ListRooms(ctx context.Context, limit int) ([]RoomListing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM rooms
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoomListing
	for rows.Next() {
		var r RoomListing
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddGalleryEntry inserts a published artwork and returns its id.
func (s *SQLiteStore) AddGalleryEntry(ctx context.Context, e *GalleryEntry) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery (id, room_id, title, author, image_data, likes, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, id, e.RoomID, e.Title, e.Author, e.ImageData, board.Now())
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListGallery returns entries newest first.
func (s *SQLiteStore) ListGallery(ctx context.Context, limit int) ([]GalleryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, title, author, image_data, likes, created_at
		FROM gallery
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GalleryEntry
	for rows.Next() {
		var e GalleryEntry
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Title, &e.Author, &e.ImageData, &e.Likes, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LikeGalleryEntry increments the like counter; ErrNotFound if absent.
func (s *SQLiteStore) LikeGalleryEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE gallery SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
