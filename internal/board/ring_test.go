package board

import (
	"fmt"
	"testing"
)

func fill(r *Ring, n int) {
	for i := 0; i < n; i++ {
		r.Push(ChatMessage{ID: fmt.Sprintf("m%d", i), Text: fmt.Sprintf("msg %d", i)})
	}
}

func TestRingCapacity(t *testing.T) {
	r := NewRing(3)
	fill(r, 5)
	if r.Len() != 3 {
		t.Fatalf("expected len 3, got %d", r.Len())
	}
}

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing(3)
	fill(r, 5)
	got := r.Last(3)
	want := []string{"m2", "m3", "m4"}
	for i, m := range got {
		if m.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], m.ID)
		}
	}
}

func TestRingLastFewerThanHeld(t *testing.T) {
	r := NewRing(10)
	fill(r, 7)
	got := r.Last(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[1].ID != "m6" {
		t.Fatalf("expected newest last (m6), got %s", got[1].ID)
	}
}

func TestRingLastMoreThanHeld(t *testing.T) {
	r := NewRing(10)
	fill(r, 4)
	if got := r.Last(50); len(got) != 4 {
		t.Fatalf("expected all 4 messages, got %d", len(got))
	}
}

func TestRingEmpty(t *testing.T) {
	r := NewRing(5)
	if r.Len() != 0 {
		t.Fatalf("expected empty ring, len %d", r.Len())
	}
	if got := r.Last(3); len(got) != 0 {
		t.Fatalf("expected no messages, got %d", len(got))
	}
}
