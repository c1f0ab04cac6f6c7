package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/denmalbas007/draw-together/internal/store"
	"github.com/denmalbas007/draw-together/internal/ws"
)

type RoomsAPI struct {
	Hub *ws.Hub
	DB  store.RoomStore
}

// List returns persisted rooms overlaid with live session counts; rooms that
// exist only in memory (never yet saved) are included too.
func (a *RoomsAPI) List(w http.ResponseWriter, r *http.Request) {
	saved, err := a.DB.ListRooms(r.Context(), 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	live := a.Hub.LiveListings()
	counts := make(map[string]store.RoomListing, len(live))
	for _, l := range live {
		counts[l.ID] = l
	}

	out := make([]store.RoomListing, 0, len(saved)+len(live))
	seen := make(map[string]bool, len(saved))
	for _, l := range saved {
		if lv, ok := counts[l.ID]; ok {
			l.ActiveUsers = lv.ActiveUsers
			if lv.UpdatedAt > l.UpdatedAt {
				l.UpdatedAt = lv.UpdatedAt
			}
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	for _, l := range live {
		if !seen[l.ID] {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })

	writeJSON(w, out)
}

// Stats returns live statistics for one room; 404 when unknown.
func (a *RoomsAPI) Stats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	stats, ok := a.Hub.Stats(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	writeJSON(w, stats)
}

// Save triggers an immediate synchronous save of an in-memory room.
func (a *RoomsAPI) Save(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := a.Hub.SaveNow(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, map[string]string{"status": "saved"})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Room not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
