package board

// Ring is a fixed-capacity ring buffer of chat messages. Once full, each
// push overwrites the oldest entry.
type Ring struct {
	buf   []ChatMessage
	start int // index of the oldest entry
	n     int // entries in use
}

// NewRing allocates a ring holding at most capacity messages.
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]ChatMessage, capacity)}
}

// Push appends m, evicting the oldest message when the ring is full.
func (r *Ring) Push(m ChatMessage) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = m
		r.n++
		return
	}
	r.buf[r.start] = m
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of messages currently held.
func (r *Ring) Len() int { return r.n }

// Last returns up to n messages, oldest first, newest last.
func (r *Ring) Last(n int) []ChatMessage {
	if n > r.n {
		n = r.n
	}
	out := make([]ChatMessage, 0, n)
	for i := r.n - n; i < r.n; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}
