package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/denmalbas007/draw-together/internal/store"
)

type GalleryAPI struct {
	DB store.RoomStore
}

type galleryPostReq struct {
	RoomID    string `json:"room_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ImageData string `json:"image_data"`
}

// List returns published artworks, newest first.
func (a *GalleryAPI) List(w http.ResponseWriter, r *http.Request) {
	entries, err := a.DB.ListGallery(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []store.GalleryEntry{}
	}
	writeJSON(w, entries)
}

// Create publishes an artwork to the gallery.
func (a *GalleryAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req galleryPostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageData == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Title == "" {
		req.Title = "Untitled"
	}
	if req.Author == "" {
		req.Author = "Anonymous"
	}

	id, err := a.DB.AddGalleryEntry(r.Context(), &store.GalleryEntry{
		RoomID:    req.RoomID,
		Title:     req.Title,
		Author:    req.Author,
		ImageData: req.ImageData,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"id": id})
}

// Like increments an artwork's like counter.
func (a *GalleryAPI) Like(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := a.DB.LikeGalleryEntry(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, map[string]string{"status": "liked"})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Gallery item not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
