package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denmalbas007/draw-together/internal/board"
)

// PostgresStore persists rooms and the gallery in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool wrapper.
func NewPostgres(ctx context.Context, url string, log *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

func (p *PostgresStore) Close() { p.pool.Close() }

func (p *PostgresStore) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

// LoadRoom fetches one room snapshot; ErrNotFound when the row is absent.
func (p *PostgresStore) LoadRoom(ctx context.Context, id string) (*RoomSnapshot, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(password_hash, ''), data, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`, id)

	snap := &RoomSnapshot{}
	var data []byte
	if err := row.Scan(&snap.ID, &snap.Name, &snap.PasswordHash, &data, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
func (p *PostgresStore) SaveRoom(ctx context.Context, snap *RoomSnapshot) error {
	data, err := encodeBlob(snap)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO rooms (id, name, password_hash, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, snap.ID, snap.Name, snap.PasswordHash, data, snap.CreatedAt, board.Now())
	if err != nil {
		return err
	}
	p.log.Info("room.saved", "id", snap.ID, "strokes", len(snap.Strokes))
	return nil
}

// ListRooms returns rooms sorted by last update.
func (p *PostgresStore) ListRooms(ctx context.Context, limit int) ([]RoomListing, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at
		FROM rooms
		ORDER BY updated_at DESC
		LIMIT $1
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
func (p *PostgresStore) AddGalleryEntry(ctx context.Context, e *GalleryEntry) (string, error) {
	id := uuid.NewString()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO gallery (id, room_id, title, author, image_data, likes, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`, id, e.RoomID, e.Title, e.Author, e.ImageData, board.Now())
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListGallery returns entries newest first.
func (p *PostgresStore) ListGallery(ctx context.Context, limit int) ([]GalleryEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, room_id, title, author, image_data, likes, created_at
		FROM gallery
		ORDER BY created_at DESC
		LIMIT $1
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
func (p *PostgresStore) LikeGalleryEntry(ctx context.Context, id string) error {
	ct, err := p.pool.Exec(ctx, `UPDATE gallery SET likes = likes + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
