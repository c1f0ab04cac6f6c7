package board

// Point is one coordinate in a stroke path.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tool kinds a stroke can carry.
const (
	ToolBrush  = "brush"
	ToolEraser = "eraser"
	ToolLine   = "line"
	ToolRect   = "rect"
	ToolCircle = "circle"
	ToolText   = "text"
	ToolFill   = "fill"
)

// KnownTool reports whether t is one of the supported tool kinds.
func KnownTool(t string) bool {
	switch t {
	case ToolBrush, ToolEraser, ToolLine, ToolRect, ToolCircle, ToolText, ToolFill:
		return true
	}
	return false
}

// Stroke is one atomic drawing action. Immutable once appended to a room;
// it is only ever removed wholesale (undo, layer clear).
type Stroke struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Points    []Point `json:"points"`
	Text      string  `json:"text,omitempty"`
	Color     string  `json:"color"`
	Size      int     `json:"size"`
	LayerID   string  `json:"layer_id"`
	Tool      string  `json:"tool"`
	Timestamp float64 `json:"timestamp"`
}

// Layer is an independently clearable drawing surface. Order is the z-index
// assigned at creation; it is never renumbered, so deletions elsewhere may
// leave gaps or duplicates.
type Layer struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	Locked  bool    `json:"locked"`
	Opacity float64 `json:"opacity"`
	Order   int     `json:"order"`
}

// ChatMessage snapshots the nickname at send time; it is not re-resolved
// when the sender renames or leaves.
type ChatMessage struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Nickname  string  `json:"nickname"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// Stats is derived from the room plus the live session registry. Recomputed
// on demand, never persisted.
type Stats struct {
	TotalStrokes int     `json:"total_strokes"`
	TotalJoins   int     `json:"total_users_joined"`
	ActiveUsers  int     `json:"active_users"`
	CreatedAt    float64 `json:"created_at"`
	LastActivity float64 `json:"last_activity"`
}

// Palette of colors handed out to sessions in join order. Assignment is
// palette[len(assigned) % len(palette)], stable within one process lifetime.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}
