package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a room or gallery entry does not exist.
var ErrNotFound = errors.New("not found")

// RoomStore is the persistence gateway for room snapshots and the gallery.
// PostgresStore and SQLiteStore both implement it; config picks one.
type RoomStore interface {
	Close()
	Ping(ctx context.Context) error

	// Room snapshots
	LoadRoom(ctx context.Context, id string) (*RoomSnapshot, error)
	SaveRoom(ctx context.Context, snap *RoomSnapshot) error
	ListRooms(ctx context.Context, limit int) ([]RoomListing, error)

	// Gallery
	AddGalleryEntry(ctx context.Context, e *GalleryEntry) (string, error)
	ListGallery(ctx context.Context, limit int) ([]GalleryEntry, error)
	LikeGalleryEntry(ctx context.Context, id string) error
}
