package httpx

import "net/http"

// Static catalogs the drawing client pulls once at load.

type sticker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SVG  string `json:"svg"`
}

type shortcut struct {
	Key    string `json:"key"`
	Action string `json:"action"`
}

var stickers = []sticker{
	{ID: "star", Name: "Star", SVG: `<svg viewBox="0 0 24 24"><path d="M12 2l3 7h7l-5.5 4.5L18.5 21 12 16.5 5.5 21l2-7.5L2 9h7z"/></svg>`},
	{ID: "heart", Name: "Heart", SVG: `<svg viewBox="0 0 24 24"><path d="M12 21l-8-8a5.5 5.5 0 018-7 5.5 5.5 0 018 7z"/></svg>`},
	{ID: "smiley", Name: "Smiley", SVG: `<svg viewBox="0 0 24 24"><circle cx="12" cy="12" r="10"/><circle cx="9" cy="10" r="1"/><circle cx="15" cy="10" r="1"/><path d="M8 15a5 5 0 008 0"/></svg>`},
	{ID: "arrow", Name: "Arrow", SVG: `<svg viewBox="0 0 24 24"><path d="M2 12h16m0 0l-6-6m6 6l-6 6"/></svg>`},
	{ID: "check", Name: "Check", SVG: `<svg viewBox="0 0 24 24"><path d="M4 12l5 5L20 6"/></svg>`},
}

var shortcuts = []shortcut{
	{Key: "B", Action: "Brush tool"},
	{Key: "E", Action: "Eraser tool"},
	{Key: "L", Action: "Line tool"},
	{Key: "R", Action: "Rectangle tool"},
	{Key: "C", Action: "Circle tool"},
	{Key: "T", Action: "Text tool"},
	{Key: "F", Action: "Fill tool"},
	{Key: "Ctrl+Z", Action: "Undo last stroke"},
	{Key: "[", Action: "Decrease brush size"},
	{Key: "]", Action: "Increase brush size"},
}

func Stickers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, stickers)
}

func Shortcuts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, shortcuts)
}
