package game

import (
	"fmt"
	"math/rand/v2"
)

// Source picks an index in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// pool is the set of undrawn numbers. present is the membership bitmap
// indexed by number; members keeps the remaining numbers packed in
// members[:size] and pos maps a number to its slot, so removal and uniform
// selection are both constant time.
type pool struct {
	present [MaxNumber + 1]bool
	members [MaxNumber]int
	pos     [MaxNumber + 1]int
	size    int
}

func (p *pool) fill() {
	for i := 0; i < MaxNumber; i++ {
		n := i + 1
		p.members[i] = n
		p.pos[n] = i
		p.present[n] = true
	}
	p.size = MaxNumber
}

func (p *pool) remove(n int) {
	i := p.pos[n]
	last := p.members[p.size-1]
	p.members[i] = last
	p.pos[last] = i
	p.size--
	p.present[n] = false
}

// DrawEngine owns one round's number pool and call history. It is not safe
// for concurrent use; Session serializes access to it.
type DrawEngine struct {
	pool    pool
	history []int
	playing bool
	src     Source
}

// NewDrawEngine returns an engine with a full pool. A nil src uses
// math/rand/v2.
func NewDrawEngine(src Source) *DrawEngine {
	if src == nil {
		src = globalSource{}
	}
	e := &DrawEngine{src: src, history: make([]int, 0, MaxNumber)}
	e.pool.fill()
	return e
}

// Draw removes a uniformly random number from the pool, appends it to the
// history and returns it.
func (e *DrawEngine) Draw() (int, error) {
	if !e.playing {
		return 0, ErrNotPlaying
	}
	if e.pool.size == 0 {
		return 0, fmt.Errorf("%w: %d numbers called", ErrEmptyPool, len(e.history))
	}
	n := e.pool.members[e.src.IntN(e.pool.size)]
	e.pool.remove(n)
	e.history = append(e.history, n)
	return n, nil
}

// Start marks the engine as playing.
func (e *DrawEngine) Start() { e.playing = true }

// Pause stops accepting draws. Pool and history are untouched.
func (e *DrawEngine) Pause() { e.playing = false }

// Resume accepts draws again.
func (e *DrawEngine) Resume() { e.playing = true }

// Reset refills the pool, clears the history and stops play.
func (e *DrawEngine) Reset() {
	e.pool.fill()
	e.history = e.history[:0]
	e.playing = false
}

func (e *DrawEngine) IsPlaying() bool { return e.playing }

func (e *DrawEngine) CallCount() int { return len(e.history) }

// Remaining returns how many numbers are still in the pool.
func (e *DrawEngine) Remaining() int { return e.pool.size }

// Called reports whether n has been drawn this round.
func (e *DrawEngine) Called(n int) bool {
	if n < 1 || n > MaxNumber {
		return false
	}
	return !e.pool.present[n]
}

// History returns a copy of the call sequence.
func (e *DrawEngine) History() []int {
	return append([]int(nil), e.history...)
}

// Last returns the most recent call, or 0 before the first draw.
func (e *DrawEngine) Last() int {
	if len(e.history) == 0 {
		return 0
	}
	return e.history[len(e.history)-1]
}
