package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/denmalbas007/draw-together/internal/board"
	"github.com/denmalbas007/draw-together/internal/store"
	"github.com/denmalbas007/draw-together/pkg/metrics"
)

// ErrWrongPassword rejects a join against a password-protected room.
var ErrWrongPassword = errors.New("incorrect room password")

// Room pairs one board document with its live sessions. A single mutex
// guards the whole validate -> mutate -> enqueue-broadcast sequence, so at
// most one event is in flight per room while different rooms stay fully
// parallel. Delivery itself is a non-blocking enqueue, so no lock is held
// across socket writes.
type Room struct {
	mu       sync.Mutex
	state    *board.Room
	sessions map[string]*Session
	colors   map[string]string // user id -> palette color, process lifetime
	log      *slog.Logger
	dirty    bool

	// publish, when set, mirrors every broadcast to the cross-instance bus.
	publish func(payload []byte, exclude string)
}

// NewRoom wraps a board document for live use.
func NewRoom(state *board.Room, log *slog.Logger) *Room {
	return &Room{
		state:    state,
		sessions: make(map[string]*Session),
		colors:   make(map[string]string),
		log:      log.With("room", state.ID),
	}
}

// Join authenticates and registers a session, tells the others, and sends
// the join-time snapshot to the newcomer. A rejected join mutates nothing.
func (r *Room) Join(s *Session, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(r.state.PasswordHash), []byte(password)) != nil {
			return ErrWrongPassword
		}
	}

	color, ok := r.colors[s.UserID]
	if !ok {
		color = board.Palette[len(r.colors)%len(board.Palette)]
		r.colors[s.UserID] = color
	}
	s.Color = color

	r.sessions[s.UserID] = s
	r.state.RecordJoin()
	r.dirty = true

	r.broadcastLocked(marshal(userJoinedMsg{
		Type:     "user_joined",
		UserID:   s.UserID,
		Nickname: s.Nickname,
		Color:    color,
		Users:    r.usersLocked(),
	}), s.UserID)

	r.deliverLocked(s, marshal(initMsg{
		Type: "init",
		Room: initRoom{
			ID:          r.state.ID,
			Name:        r.state.Name,
			HasPassword: r.state.PasswordHash != "",
			Layers:      r.state.Layers,
			Strokes:     r.state.Strokes,
			Chat:        r.state.Chat.Last(board.ChatSnapshotCap),
			TimerEnd:    r.state.TimerEnd,
		},
		Users: r.usersLocked(),
		Stats: r.state.Stats(len(r.sessions)),
		Color: color,
	}))
	return nil
}

// Leave removes a session and notifies the rest. Idempotent: a second
// disconnect for the same session is a no-op.
func (r *Room) Leave(userID string) (nickname string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(userID)
}

func (r *Room) removeLocked(userID string) (string, bool) {
	s, ok := r.sessions[userID]
	if !ok {
		return "", false
	}
	delete(r.sessions, userID)
	r.broadcastLocked(marshal(userLeftMsg{
		Type:     "user_left",
		UserID:   s.UserID,
		Nickname: s.Nickname,
		Users:    r.usersLocked(),
	}), "")
	return s.Nickname, true
}

// HandleEvent validates and applies one inbound event, then fans out the
// resulting messages. Malformed events are dropped with an error reply to
// the sender only; unknown kinds are dropped silently. Neither path can
// disturb other sessions.
func (r *Room) HandleEvent(s *Session, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.EventsRejected.Inc()
		r.reply(s, errorPayload("invalid message"))
		return
	}
	if !knownEvent(env.Type) {
		metrics.EventsRejected.Inc()
		return
	}
	metrics.EventsTotal.WithLabelValues(env.Type).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()

	// A session pruned during fan-out may still have reads in flight; its
	// events are dropped once it left the registry. The identity check also
	// covers a stale goroutine racing a rejoin of the same user.
	if r.sessions[s.UserID] != s {
		return
	}

	switch env.Type {
	case evStroke:
		r.handleStroke(s, data)
	case evUndo:
		r.handleUndo(s)
	case evAddLayer:
		r.handleAddLayer(s, data)
	case evClearLayer:
		r.handleClearLayer(s, data)
	case evCursor:
		r.handleCursor(s, data)
	case evChat:
		r.handleChat(s, data)
	case evStartTimer:
		r.handleStartTimer(s, data)
	case evStopTimer:
		r.state.StopTimer()
		r.dirty = true
		r.broadcastLocked(marshal(timerStoppedMsg{Type: "timer_stopped"}), "")
	case evSaveThumbnail:
		r.handleThumbnail(s, data)
	case evReaction:
		r.handleReaction(s, data)
	}
}

func (r *Room) handleStroke(s *Session, data []byte) {
	var ev strokeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		r.rejectLocked(s, "invalid stroke")
		return
	}
	if ev.Tool == "" {
		ev.Tool = board.ToolBrush
	}
	if !board.KnownTool(ev.Tool) {
		r.rejectLocked(s, "unknown tool")
		return
	}
	// Text strokes carry their content in text; every other tool needs a
	// point path.
	if ev.Tool == board.ToolText {
		if ev.Text == "" {
			r.rejectLocked(s, "text required")
			return
		}
	} else if len(ev.Points) == 0 {
		r.rejectLocked(s, "points required")
		return
	}
	if ev.Color == "" || ev.Size <= 0 {
		r.rejectLocked(s, "color and size required")
		return
	}

	stroke := r.state.AddStroke(board.Stroke{
		ID:      ev.ID,
		UserID:  s.UserID,
		Points:  ev.Points,
		Text:    ev.Text,
		Color:   ev.Color,
		Size:    ev.Size,
		LayerID: ev.LayerID,
		Tool:    ev.Tool,
	})
	r.dirty = true
	r.broadcastLocked(marshal(strokeMsg{Type: "stroke", Stroke: stroke}), s.UserID)
}

func (r *Room) handleUndo(s *Session) {
	removed, ok := r.state.UndoStroke(s.UserID)
	if !ok {
		return
	}
	r.dirty = true
	r.broadcastLocked(marshal(removeStrokeMsg{Type: "remove_stroke", StrokeID: removed.ID}), "")
}

func (r *Room) handleAddLayer(s *Session, data []byte) {
	var ev addLayerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		r.rejectLocked(s, "invalid layer")
		return
	}
	layer := r.state.AddLayer(ev.ID, ev.Name)
	r.dirty = true
	r.broadcastLocked(marshal(layerAddedMsg{Type: "layer_added", Layer: layer}), "")
}

func (r *Room) handleClearLayer(s *Session, data []byte) {
	var ev clearLayerEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.LayerID == "" {
		r.rejectLocked(s, "layer_id required")
		return
	}
	r.state.ClearLayer(ev.LayerID)
	r.dirty = true
	r.broadcastLocked(marshal(layerClearedMsg{Type: "layer_cleared", LayerID: ev.LayerID}), "")
}

func (r *Room) handleCursor(s *Session, data []byte) {
	var ev cursorEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.X == nil || ev.Y == nil {
		r.rejectLocked(s, "x and y required")
		return
	}
	// Ephemeral: no state change.
	r.broadcastLocked(marshal(cursorMsg{
		Type:   "cursor",
		UserID: s.UserID,
		X:      *ev.X,
		Y:      *ev.Y,
		Color:  s.Color,
	}), s.UserID)
}

func (r *Room) handleChat(s *Session, data []byte) {
	var ev chatEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Text == "" {
		r.rejectLocked(s, "text required")
		return
	}
	msg := r.state.AddChat(s.UserID, s.Nickname, ev.Text)
	r.dirty = true
	// Chat goes to everyone, the sender included.
	r.broadcastLocked(marshal(chatMsg{Type: "chat", Message: msg}), "")
}

func (r *Room) handleStartTimer(s *Session, data []byte) {
	var ev startTimerEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Duration == nil {
		r.rejectLocked(s, "duration required")
		return
	}
	end, clamped := r.state.StartTimer(*ev.Duration)
	r.dirty = true
	r.broadcastLocked(marshal(timerStartedMsg{
		Type:     "timer_started",
		TimerEnd: end,
		Duration: clamped,
	}), "")
}

func (r *Room) handleThumbnail(s *Session, data []byte) {
	var ev thumbnailEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Thumbnail == "" {
		r.rejectLocked(s, "thumbnail required")
		return
	}
	r.state.SetThumbnail(ev.Thumbnail)
	r.dirty = true
	// Stored only; nothing to fan out.
}

func (r *Room) handleReaction(s *Session, data []byte) {
	var ev reactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		r.rejectLocked(s, "invalid reaction")
		return
	}
	// Ephemeral: no state change.
	r.broadcastLocked(marshal(reactionMsg{
		Type:   "reaction",
		UserID: s.UserID,
		Emoji:  ev.Emoji,
		X:      ev.X,
		Y:      ev.Y,
	}), "")
}

// broadcastLocked fans a payload out locally and mirrors it to the bus.
func (r *Room) broadcastLocked(payload []byte, exclude string) {
	r.fanoutLocked(payload, exclude)
	if r.publish != nil {
		r.publish(payload, exclude)
	}
}

// fanoutLocked delivers to a snapshot of the current sessions, skipping
// exclude. Sessions whose enqueue fails are pruned only after the pass
// completes, so a dying socket never corrupts the iteration or the delivery
// order seen by the others.
func (r *Room) fanoutLocked(payload []byte, exclude string) {
	recipients := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.UserID == exclude {
			continue
		}
		recipients = append(recipients, s)
	}

	var dead []*Session
	for _, s := range recipients {
		if s.send(payload) {
			metrics.BroadcastsTotal.Inc()
			continue
		}
		metrics.SendsDropped.Inc()
		dead = append(dead, s)
	}
	for _, s := range dead {
		// A failed send is an implicit disconnect for that session only.
		// Killing the transport ends its read loop, so the departed client
		// cannot keep mutating the room.
		if _, ok := r.removeLocked(s.UserID); ok {
			r.log.Debug("session.pruned", "user", s.UserID)
		}
		s.kill()
	}
}

// deliverLocked sends to one session, pruning it on failure.
func (r *Room) deliverLocked(s *Session, payload []byte) {
	if !s.send(payload) {
		metrics.SendsDropped.Inc()
		r.removeLocked(s.UserID)
		s.kill()
	}
}

// rejectLocked answers a malformed event; the sender alone hears about it.
func (r *Room) rejectLocked(s *Session, reason string) {
	metrics.EventsRejected.Inc()
	r.deliverLocked(s, errorPayload(reason))
}

// reply is rejectLocked for paths that do not hold the room lock yet.
func (r *Room) reply(s *Session, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliverLocked(s, payload)
}

func (r *Room) usersLocked() []userRef {
	users := make([]userRef, 0, len(r.sessions))
	for _, s := range r.sessions {
		users = append(users, userRef{ID: s.UserID, Nickname: s.Nickname, Color: s.Color})
	}
	return users
}

// DeliverRemote fans out a payload that arrived over the bus from another
// instance. Local-only: a bus message is never echoed back onto the bus.
// The exclusion still skips the named user in case the session roams.
func (r *Room) DeliverRemote(payload []byte, exclude string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fanoutLocked(payload, exclude)
}

// Snapshot copies the persistable subset of the room under the lock.
func (r *Room) Snapshot() *store.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	layers := make([]board.Layer, len(r.state.Layers))
	copy(layers, r.state.Layers)
	strokes := make([]board.Stroke, len(r.state.Strokes))
	copy(strokes, r.state.Strokes)

	return &store.RoomSnapshot{
		ID:           r.state.ID,
		Name:         r.state.Name,
		PasswordHash: r.state.PasswordHash,
		Layers:       layers,
		Strokes:      strokes,
		Chat:         r.state.Chat.Last(board.ChatSnapshotCap),
		Thumbnail:    r.state.Thumbnail,
		CreatedAt:    r.state.CreatedAt,
	}
}

// Stats returns the room's derived statistics.
func (r *Room) Stats() board.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Stats(len(r.sessions))
}

// ActiveCount returns the number of live sessions.
func (r *Room) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Idle reports whether the room is empty and its last activity time.
func (r *Room) Idle() (empty bool, lastActivity float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions) == 0, r.state.LastActivity()
}

// Dirty reports and clears the unsaved-changes flag in one step; the caller
// is committing to a save attempt.
func (r *Room) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dirty
	r.dirty = false
	return d
}

// MarkDirty flags unsaved changes, used when a save attempt fails so the
// janitor retries on its next sweep.
func (r *Room) MarkDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}
