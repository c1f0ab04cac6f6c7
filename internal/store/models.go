package store

import (
	"encoding/json"

	"github.com/denmalbas007/draw-together/internal/board"
)

// RoomSnapshot is the serializable subset of a room: what a late joiner
// receives and what one row in the rooms table holds. Chat carries at most
// the last board.ChatSnapshotCap messages.
type RoomSnapshot struct {
	ID           string
	Name         string
	PasswordHash string
	Layers       []board.Layer
	Strokes      []board.Stroke
	Chat         []board.ChatMessage
	Thumbnail    string
	CreatedAt    float64
	UpdatedAt    float64
}

// RoomListing is one entry in the room directory.
type RoomListing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CreatedAt   float64 `json:"created_at"`
	UpdatedAt   float64 `json:"updated_at"`
	ActiveUsers int     `json:"active_users"`
}

// GalleryEntry is one published artwork.
type GalleryEntry struct {
	ID        string  `json:"id"`
	RoomID    string  `json:"room_id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	ImageData string  `json:"image_data"`
	Likes     int     `json:"likes"`
	CreatedAt float64 `json:"created_at"`
}

// roomBlob is the JSON document stored in the rooms.data column. Same shape
// for both backends so a database can be migrated by copying rows.
type roomBlob struct {
	Layers    []board.Layer       `json:"layers"`
	Strokes   []board.Stroke      `json:"strokes"`
	Chat      []board.ChatMessage `json:"chat_messages"`
	Thumbnail string              `json:"thumbnail,omitempty"`
}

func encodeBlob(snap *RoomSnapshot) ([]byte, error) {
	return json.Marshal(roomBlob{
		Layers:    snap.Layers,
		Strokes:   snap.Strokes,
		Chat:      snap.Chat,
		Thumbnail: snap.Thumbnail,
	})
}

func decodeBlob(data []byte, snap *RoomSnapshot) error {
	var b roomBlob
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	snap.Layers = b.Layers
	snap.Strokes = b.Strokes
	snap.Chat = b.Chat
	snap.Thumbnail = b.Thumbnail
	return nil
}
