package ws

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// transport is the send side of one session. TrySend must not block; false
// means the session is unreachable and should be pruned. Kill tears the
// connection down without a handshake so the read loop terminates; it must
// not block either.
type transport interface {
	TrySend(b []byte) bool
	Kill()
}

// Conn wraps a websocket with a buffered outbound channel so broadcast
// fan-out never blocks on a slow client.
type Conn struct {
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, out: make(chan []byte, 256)}
}

// TrySend queues b for delivery. A full buffer means the client stopped
// draining; report failure so the session gets disconnected.
func (c *Conn) TrySend(b []byte) bool {
	select {
	case c.out <- b:
		return true
	default:
		return false
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound messages + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }

// Kill drops the connection without a close handshake. Used when a session
// is pruned as unreachable: the pending Read fails immediately, so no further
// events from that session reach the room.
func (c *Conn) Kill() { _ = c.ws.CloseNow() }

// CloseWithError sends a final error frame then closes with a policy status.
func (c *Conn) CloseWithError(ctx context.Context, payload []byte) {
	_ = c.ws.Write(ctx, websocket.MessageText, payload)
	_ = c.ws.Close(websocket.StatusPolicyViolation, "rejected")
}
