package ws

// Session is one connected client inside a room: identity plus the send
// side of its transport. Identity is fixed for the session's lifetime; the
// color is assigned by the room at join.
type Session struct {
	UserID   string
	Nickname string
	Color    string
	RoomID   string

	tr transport
}

// NewSession binds an identity to a transport.
func NewSession(userID, nickname, roomID string, tr transport) *Session {
	return &Session{UserID: userID, Nickname: nickname, RoomID: roomID, tr: tr}
}

func (s *Session) send(b []byte) bool { return s.tr.TrySend(b) }

func (s *Session) kill() { s.tr.Kill() }
