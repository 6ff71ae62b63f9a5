package game

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func newPlayingEngine(seed uint64) *DrawEngine {
	e := NewDrawEngine(rand.New(rand.NewPCG(seed, seed+1)))
	e.Start()
	return e
}

func TestDrawEngineDrawsEveryNumberOnce(t *testing.T) {
	e := newPlayingEngine(7)

	seen := make(map[int]bool, MaxNumber)
	for i := 0; i < MaxNumber; i++ {
		n, err := e.Draw()
		if err != nil {
			t.Fatalf("draw %d: %v", i+1, err)
		}
		if n < 1 || n > MaxNumber {
			t.Fatalf("draw %d returned out of range %d", i+1, n)
		}
		if seen[n] {
			t.Fatalf("draw %d repeated %d", i+1, n)
		}
		seen[n] = true
		if !e.Called(n) {
			t.Fatalf("expected %d to be marked called", n)
		}
	}
	if got := e.CallCount(); got != MaxNumber {
		t.Fatalf("expected call count %d, got %d", MaxNumber, got)
	}
	if got := e.Remaining(); got != 0 {
		t.Fatalf("expected empty pool, got %d remaining", got)
	}

	if _, err := e.Draw(); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool on draw 76, got %v", err)
	}
	if got := e.CallCount(); got != MaxNumber {
		t.Fatalf("failed draw changed call count to %d", got)
	}
}

func TestDrawEngineRejectsDrawWhenNotPlaying(t *testing.T) {
	e := NewDrawEngine(nil)
	if _, err := e.Draw(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying before start, got %v", err)
	}

	e.Start()
	first, err := e.Draw()
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	e.Pause()
	if _, err := e.Draw(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying while paused, got %v", err)
	}
	if e.CallCount() != 1 || e.Remaining() != MaxNumber-1 {
		t.Fatalf("pause touched state: count=%d remaining=%d", e.CallCount(), e.Remaining())
	}

	e.Resume()
	second, err := e.Draw()
	if err != nil {
		t.Fatalf("draw after resume: %v", err)
	}
	if second == first {
		t.Fatalf("resume repeated %d", first)
	}
}

func TestDrawEngineResetIsIdempotent(t *testing.T) {
	e := newPlayingEngine(3)
	for i := 0; i < 20; i++ {
		if _, err := e.Draw(); err != nil {
			t.Fatalf("draw: %v", err)
		}
	}

	for i := 0; i < 2; i++ {
		e.Reset()
		if e.CallCount() != 0 {
			t.Fatalf("reset %d: call count %d", i+1, e.CallCount())
		}
		if e.Remaining() != MaxNumber {
			t.Fatalf("reset %d: remaining %d", i+1, e.Remaining())
		}
		if e.IsPlaying() {
			t.Fatalf("reset %d: engine still playing", i+1)
		}
		if len(e.History()) != 0 {
			t.Fatalf("reset %d: history not empty", i+1)
		}
	}

	e.Start()
	for i := 0; i < MaxNumber; i++ {
		if _, err := e.Draw(); err != nil {
			t.Fatalf("draw %d after reset: %v", i+1, err)
		}
	}
}

func TestDrawEngineHistoryIsACopy(t *testing.T) {
	e := newPlayingEngine(11)
	n, _ := e.Draw()
	h := e.History()
	h[0] = -1
	if got := e.History()[0]; got != n {
		t.Fatalf("history mutated through copy: got %d want %d", got, n)
	}
	if e.Last() != n {
		t.Fatalf("expected last call %d, got %d", n, e.Last())
	}
}
