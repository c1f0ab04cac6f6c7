package httpx

import (
	"net/http"

	"github.com/denmalbas007/draw-together/internal/app"
	"github.com/denmalbas007/draw-together/internal/store"
	"github.com/denmalbas007/draw-together/internal/ws"
	"github.com/denmalbas007/draw-together/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, hub *ws.Hub, db store.RoomStore) http.Handler {
	mw := NewMiddleware(cfg)
	rooms := &RoomsAPI{Hub: hub, DB: db}
	gallery := &GalleryAPI{DB: db}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	}))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint, one per room
	mux.Handle("GET /ws/{roomID}", http.HandlerFunc(hub.ServeWS))

	// Room directory
	mux.Handle("GET /api/rooms", http.HandlerFunc(rooms.List))
	mux.Handle("GET /api/rooms/{id}/stats", http.HandlerFunc(rooms.Stats))
	mux.Handle("POST /api/rooms/{id}/save", http.HandlerFunc(rooms.Save))

	// Gallery
	mux.Handle("GET /api/gallery", http.HandlerFunc(gallery.List))
	mux.Handle("POST /api/gallery", http.HandlerFunc(gallery.Create))
	mux.Handle("POST /api/gallery/{id}/like", http.HandlerFunc(gallery.Like))

	// Client catalogs
	mux.Handle("GET /api/stickers", http.HandlerFunc(Stickers))
	mux.Handle("GET /api/shortcuts", http.HandlerFunc(Shortcuts))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
