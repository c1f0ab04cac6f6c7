package ws

import (
	"encoding/json"

	"github.com/denmalbas007/draw-together/internal/board"
)

// Inbound event kinds. The set is closed: anything else is rejected at the
// boundary before any handler sees its fields.
const (
	evStroke        = "stroke"
	evUndo          = "undo"
	evAddLayer      = "add_layer"
	evClearLayer    = "clear_layer"
	evCursor        = "cursor"
	evChat          = "chat"
	evStartTimer    = "start_timer"
	evStopTimer     = "stop_timer"
	evSaveThumbnail = "save_thumbnail"
	evReaction      = "reaction"
)

func knownEvent(kind string) bool {
	switch kind {
	case evStroke, evUndo, evAddLayer, evClearLayer, evCursor, evChat,
		evStartTimer, evStopTimer, evSaveThumbnail, evReaction:
		return true
	}
	return false
}

// envelope carries the discriminator; the payload is re-decoded per kind.
type envelope struct {
	Type string `json:"type"`
}

// Inbound payloads. Pointer fields mark values whose presence must be
// validated, not just defaulted.
type strokeEvent struct {
	ID      string        `json:"id"`
	Points  []board.Point `json:"points"`
	Text    string        `json:"text"`
	Color   string        `json:"color"`
	Size    int           `json:"size"`
	LayerID string        `json:"layer_id"`
	Tool    string        `json:"tool"`
}

type addLayerEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type clearLayerEvent struct {
	LayerID string `json:"layer_id"`
}

type cursorEvent struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type chatEvent struct {
	Text string `json:"text"`
}

type startTimerEvent struct {
	Duration *float64 `json:"duration"`
}

type thumbnailEvent struct {
	Thumbnail string `json:"thumbnail"`
}

type reactionEvent struct {
	Emoji string  `json:"emoji"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Outbound messages.

type userRef struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
}

type initRoom struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	HasPassword bool                `json:"has_password"`
	Layers      []board.Layer       `json:"layers"`
	Strokes     []board.Stroke      `json:"strokes"`
	Chat        []board.ChatMessage `json:"chat_messages"`
	TimerEnd    float64             `json:"timer_end,omitempty"`
}

type initMsg struct {
	Type  string      `json:"type"`
	Room  initRoom    `json:"room"`
	Users []userRef   `json:"users"`
	Stats board.Stats `json:"stats"`
	Color string      `json:"color"`
}

type userJoinedMsg struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Nickname string    `json:"nickname"`
	Color    string    `json:"color"`
	Users    []userRef `json:"users"`
}

type userLeftMsg struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Nickname string    `json:"nickname"`
	Users    []userRef `json:"users"`
}

type strokeMsg struct {
	Type   string       `json:"type"`
	Stroke board.Stroke `json:"stroke"`
}

type removeStrokeMsg struct {
	Type     string `json:"type"`
	StrokeID string `json:"stroke_id"`
}

type layerAddedMsg struct {
	Type  string      `json:"type"`
	Layer board.Layer `json:"layer"`
}

type layerClearedMsg struct {
	Type    string `json:"type"`
	LayerID string `json:"layer_id"`
}

type cursorMsg struct {
	Type   string  `json:"type"`
	UserID string  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
}

type chatMsg struct {
	Type    string            `json:"type"`
	Message board.ChatMessage `json:"message"`
}

type timerStartedMsg struct {
	Type     string  `json:"type"`
	TimerEnd float64 `json:"timer_end"`
	Duration float64 `json:"duration"`
}

type timerStoppedMsg struct {
	Type string `json:"type"`
}

type reactionMsg struct {
	Type   string  `json:"type"`
	UserID string  `json:"user_id"`
	Emoji  string  `json:"emoji"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// marshal never fails for the message types above.
func marshal(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func errorPayload(message string) []byte {
	return marshal(errorMsg{Type: "error", Message: message})
}
