package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/denmalbas007/draw-together/internal/board"
	"github.com/denmalbas007/draw-together/internal/store"
	"github.com/denmalbas007/draw-together/pkg/metrics"
)

// Hub is the process-wide room registry: it resolves room ids to live
// rooms (restoring from the store on first touch), owns the websocket
// accept path, and runs the async save worker and the idle-room janitor.
type Hub struct {
	log     *slog.Logger
	db      store.RoomStore
	bus     *Bus // nil in single-instance deployments
	self    string
	idleTTL time.Duration

	mu    sync.RWMutex
	rooms map[string]*Room

	saveQ chan string
	busQ  chan BusMessage
}

// NewHub sets up the hub with the store, the optional bus, and the logger.
func NewHub(logger *slog.Logger, db store.RoomStore, bus *Bus, idleTTL time.Duration, saveQueueLen int) *Hub {
	return &Hub{
		log:     logger,
		db:      db,
		bus:     bus,
		self:    uuid.NewString(),
		idleTTL: idleTTL,
		rooms:   map[string]*Room{},
		saveQ:   make(chan string, saveQueueLen),
		busQ:    make(chan BusMessage, 1024),
	}
}

// Run services the save queue, the bus, and the janitor until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	if h.bus != nil {
		go h.bus.Subscribe(ctx, h.onBusMessage)
		go h.publishLoop(ctx)
	}
	go h.saveLoop(ctx)
	go h.janitor(ctx)
	<-ctx.Done()
}

// ServeWS handles one /ws/{roomID} connection for its whole lifetime.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if roomID == "" {
		http.Error(w, "room id required", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		userID = uuid.NewString()
	}
	nickname := q.Get("nickname")
	if nickname == "" {
		nickname = "Anonymous"
	}
	password := q.Get("password")

	sock, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}
	ctx := r.Context()
	conn := NewConn(sock)

	rm := h.roomFor(ctx, roomID, password)
	sess := NewSession(userID, nickname, roomID, conn)
	if err := rm.Join(sess, password); err != nil {
		// Rejected joins mutate nothing; name the failure, then close.
		conn.CloseWithError(ctx, errorPayload(err.Error()))
		return
	}

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()
	h.log.Info("session.joined", "room", roomID, "user", userID)

	go conn.WriteLoop(ctx)

	for {
		data, ok := conn.Read(ctx)
		if !ok {
			break
		}
		rm.HandleEvent(sess, data)
	}

	// Explicit close and a failed broadcast send converge here; Leave is
	// idempotent so a session pruned mid-fan-out is a no-op.
	if _, ok := rm.Leave(userID); ok {
		h.log.Info("session.left", "room", roomID, "user", userID)
	}
	h.queueSave(roomID)
	_ = conn.Close()
}

// roomFor resolves or creates the room. The store lookup happens outside
// the registry lock so a slow restore never stalls other rooms; when two
// joiners race, the first insert wins.
func (h *Hub) roomFor(ctx context.Context, roomID, password string) *Room {
	h.mu.RLock()
	rm := h.rooms[roomID]
	h.mu.RUnlock()
	if rm != nil {
		return rm
	}

	state := board.NewRoom(roomID)
	fresh := true
	snap, err := h.db.LoadRoom(ctx, roomID)
	switch {
	case err == nil:
		state = restoreRoom(snap)
		fresh = false
	case errors.Is(err, store.ErrNotFound):
		// first ever join, keep the fresh room
	default:
		// Load failure falls back to a fresh room rather than failing the
		// join; the store may recover before the next save.
		h.log.Error("room.load", "room", roomID, "err", err)
	}

	// The room password is fixed at creation by the first joiner.
	if fresh && password != "" {
		if hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err == nil {
			state.PasswordHash = string(hash)
		} else {
			h.log.Error("password.hash", "room", roomID, "err", err)
		}
	}

	rm = NewRoom(state, h.log)
	if h.bus != nil {
		rm.publish = func(payload []byte, exclude string) {
			m := BusMessage{RoomID: roomID, Origin: h.self, Exclude: exclude, Payload: payload}
			select {
			case h.busQ <- m:
			default: // bus backlog; local delivery already happened
			}
		}
	}

	h.mu.Lock()
	if existing := h.rooms[roomID]; existing != nil {
		h.mu.Unlock()
		return existing
	}
	h.rooms[roomID] = rm
	metrics.RoomsLive.Set(float64(len(h.rooms)))
	h.mu.Unlock()

	h.log.Info("room.opened", "room", roomID, "restored", !fresh)
	return rm
}

// restoreRoom rebuilds the in-memory document from a snapshot. The timer is
// transient and not restored; stroke totals are seeded from the log.
func restoreRoom(snap *store.RoomSnapshot) *board.Room {
	r := board.NewRoom(snap.ID)
	r.Name = snap.Name
	r.PasswordHash = snap.PasswordHash
	if len(snap.Layers) > 0 {
		r.Layers = snap.Layers
	}
	r.Strokes = snap.Strokes
	for _, m := range snap.Chat {
		r.Chat.Push(m)
	}
	r.Thumbnail = snap.Thumbnail
	if snap.CreatedAt > 0 {
		r.CreatedAt = snap.CreatedAt
	}
	r.SeedStats(len(snap.Strokes))
	return r
}

// get returns a live room or nil.
func (h *Hub) get(roomID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID]
}

// Stats returns the live stats for a room; false when the room is not
// resident in memory.
func (h *Hub) Stats(roomID string) (board.Stats, bool) {
	rm := h.get(roomID)
	if rm == nil {
		return board.Stats{}, false
	}
	return rm.Stats(), true
}

// SaveNow synchronously persists a live room; store.ErrNotFound when the
// room is not in memory.
func (h *Hub) SaveNow(ctx context.Context, roomID string) error {
	rm := h.get(roomID)
	if rm == nil {
		return store.ErrNotFound
	}
	rm.Dirty() // clear; this save covers pending changes
	if err := h.db.SaveRoom(ctx, rm.Snapshot()); err != nil {
		metrics.SaveFailures.Inc()
		rm.MarkDirty()
		return err
	}
	return nil
}

// LiveListings describes every room currently in memory, with active-user
// counts, for the directory endpoint.
func (h *Hub) LiveListings() []store.RoomListing {
	h.mu.RLock()
	rooms := make(map[string]*Room, len(h.rooms))
	for id, rm := range h.rooms {
		rooms[id] = rm
	}
	h.mu.RUnlock()

	out := make([]store.RoomListing, 0, len(rooms))
	for id, rm := range rooms {
		st := rm.Stats()
		out = append(out, store.RoomListing{
			ID:          id,
			Name:        id,
			CreatedAt:   st.CreatedAt,
			UpdatedAt:   st.LastActivity,
			ActiveUsers: st.ActiveUsers,
		})
	}
	return out
}

// queueSave requests a best-effort async save. Dropping on a full queue is
// fine: the janitor retries any room still marked dirty.
func (h *Hub) queueSave(roomID string) {
	select {
	case h.saveQ <- roomID:
	default:
	}
}

func (h *Hub) saveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-h.saveQ:
			h.saveRoom(id)
		}
	}
}

// saveRoom persists a room if it has unsaved changes. Failures are logged,
// counted, and leave the room dirty for the janitor's retry.
func (h *Hub) saveRoom(roomID string) {
	rm := h.get(roomID)
	if rm == nil || !rm.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.db.SaveRoom(ctx, rm.Snapshot()); err != nil {
		metrics.SaveFailures.Inc()
		rm.MarkDirty()
		h.log.Error("room.save", "room", roomID, "err", err)
	}
}

func (h *Hub) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-h.busQ:
			if err := h.bus.Publish(ctx, m); err != nil {
				h.log.Warn("bus.publish", "room", m.RoomID, "err", err)
			}
		}
	}
}

func (h *Hub) onBusMessage(m BusMessage) {
	if m.Origin == h.self {
		return
	}
	if rm := h.get(m.RoomID); rm != nil {
		rm.DeliverRemote(m.Payload, m.Exclude)
	}
}

// janitor retries dirty rooms and evicts empty ones past the idle TTL.
// Evicted rooms are saved first, so the next join restores them.
func (h *Hub) janitor(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.sweep()
		}
	}
}

func (h *Hub) sweep() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	cutoff := board.Now() - h.idleTTL.Seconds()
	for _, id := range ids {
		rm := h.get(id)
		if rm == nil {
			continue
		}
		h.saveRoom(id)
		empty, last := rm.Idle()
		if h.idleTTL > 0 && empty && last < cutoff {
			h.mu.Lock()
			delete(h.rooms, id)
			metrics.RoomsLive.Set(float64(len(h.rooms)))
			h.mu.Unlock()
			h.log.Info("room.evicted", "room", id)
		}
	}
}

// Flush persists every dirty room; used on shutdown.
func (h *Hub) Flush(ctx context.Context) {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, rm := range h.rooms {
		rooms = append(rooms, rm)
	}
	h.mu.RUnlock()

	for _, rm := range rooms {
		if !rm.Dirty() {
			continue
		}
		snap := rm.Snapshot()
		if err := h.db.SaveRoom(ctx, snap); err != nil {
			metrics.SaveFailures.Inc()
			h.log.Error("room.flush", "room", snap.ID, "err", err)
		}
	}
}
