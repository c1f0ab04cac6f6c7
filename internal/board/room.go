package board

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLayerID is the background layer every room starts with.
	DefaultLayerID = "layer_0"

	// ChatMemoryCap is how many chat messages a room keeps in memory.
	// ChatSnapshotCap is how many of those any init or persisted snapshot
	// carries.
	ChatMemoryCap   = 100
	ChatSnapshotCap = 50

	// ChatTextMax is the hard cap on chat text; longer messages are
	// truncated, never rejected.
	ChatTextMax = 500

	// ThumbnailMax caps the stored thumbnail data URL.
	ThumbnailMax = 50000

	// TimerMaxSeconds is the longest timer a room can run.
	TimerMaxSeconds = 3600
)

// Room is the shared mutable document for one drawing room. It is not
// goroutine-safe: callers serialize access (one writer per room).
type Room struct {
	ID           string
	Name         string
	PasswordHash string // bcrypt; empty means an open room

	Layers    []Layer
	Strokes   []Stroke
	Chat      *Ring
	TimerEnd  float64 // epoch seconds; 0 means no timer running
	Thumbnail string
	CreatedAt float64

	totalStrokes int
	totalJoins   int
	lastActivity float64
}

// NewRoom creates a fresh room with the background layer.
func NewRoom(id string) *Room {
	now := Now()
	return &Room{
		ID:   id,
		Name: id,
		Layers: []Layer{{
			ID:      DefaultLayerID,
			Name:    "Background",
			Visible: true,
			Opacity: 1,
			Order:   0,
		}},
		Chat:         NewRing(ChatMemoryCap),
		CreatedAt:    now,
		lastActivity: now,
	}
}

// Now is the epoch-seconds clock used for all room timestamps.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// AddStroke appends s to the log with a server-assigned timestamp and
// returns the stored stroke. Empty ids and layer ids get defaults.
func (r *Room) AddStroke(s Stroke) Stroke {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.LayerID == "" {
		s.LayerID = DefaultLayerID
	}
	if s.Tool == "" {
		s.Tool = ToolBrush
	}
	s.Timestamp = Now()
	r.Strokes = append(r.Strokes, s)
	r.totalStrokes++
	r.touch()
	return s
}

// UndoStroke removes the most recent stroke authored by userID, scanning
// newest to oldest and stopping at the first match. Strokes by other
// authors between the end of the log and the match stay in place.
func (r *Room) UndoStroke(userID string) (Stroke, bool) {
	for i := len(r.Strokes) - 1; i >= 0; i-- {
		if r.Strokes[i].UserID == userID {
			s := r.Strokes[i]
			r.Strokes = append(r.Strokes[:i], r.Strokes[i+1:]...)
			r.touch()
			return s, true
		}
	}
	return Stroke{}, false
}

// AddLayer appends a layer with order equal to the current layer count.
func (r *Room) AddLayer(id, name string) Layer {
	if id == "" {
		id = "layer_" + uuid.NewString()[:8]
	}
	if name == "" {
		name = "New Layer"
	}
	l := Layer{
		ID:      id,
		Name:    name,
		Visible: true,
		Opacity: 1,
		Order:   len(r.Layers),
	}
	r.Layers = append(r.Layers, l)
	r.touch()
	return l
}

// ClearLayer removes every stroke on layerID and returns how many went.
func (r *Room) ClearLayer(layerID string) int {
	kept := r.Strokes[:0]
	removed := 0
	for _, s := range r.Strokes {
		if s.LayerID == layerID {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	r.Strokes = kept
	if removed > 0 {
		r.touch()
	}
	return removed
}

// AddChat stores a chat message with the text truncated to ChatTextMax
// characters. The ring drops the oldest message past ChatMemoryCap.
func (r *Room) AddChat(userID, nickname, text string) ChatMessage {
	text = truncate(text, ChatTextMax)
	m := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Nickname:  nickname,
		Text:      text,
		Timestamp: Now(),
	}
	r.Chat.Push(m)
	r.touch()
	return m
}

// StartTimer sets the timer end to now plus the duration clamped to
// [0, TimerMaxSeconds]. Returns the end time and the clamped duration.
func (r *Room) StartTimer(duration float64) (end, clamped float64) {
	clamped = duration
	if clamped < 0 {
		clamped = 0
	}
	if clamped > TimerMaxSeconds {
		clamped = TimerMaxSeconds
	}
	r.TimerEnd = Now() + clamped
	r.touch()
	return r.TimerEnd, clamped
}

// StopTimer clears the timer.
func (r *Room) StopTimer() {
	r.TimerEnd = 0
	r.touch()
}

// SetThumbnail stores the thumbnail truncated to ThumbnailMax characters.
func (r *Room) SetThumbnail(data string) {
	r.Thumbnail = truncate(data, ThumbnailMax)
	r.touch()
}

// truncate caps s at limit characters, never splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// RecordJoin bumps the all-time join counter.
func (r *Room) RecordJoin() {
	r.totalJoins++
	r.touch()
}

// Stats derives the room's statistics given the live session count.
func (r *Room) Stats(activeUsers int) Stats {
	return Stats{
		TotalStrokes: r.totalStrokes,
		TotalJoins:   r.totalJoins,
		ActiveUsers:  activeUsers,
		CreatedAt:    r.CreatedAt,
		LastActivity: r.lastActivity,
	}
}

// LastActivity returns the time of the most recent mutation or join.
func (r *Room) LastActivity() float64 { return r.lastActivity }

// SeedStats primes the counters when a room is restored from storage.
func (r *Room) SeedStats(totalStrokes int) {
	r.totalStrokes = totalStrokes
}

func (r *Room) touch() {
	r.lastActivity = Now()
}
