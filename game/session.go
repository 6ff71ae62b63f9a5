package game

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a session lifecycle state.
type Status string

const (
	StatusCreated  Status = "created"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// Identity names the hall staff a session belongs to. HouseID also scopes
// card lookups: a table only accepts claims for its house's cards.
type Identity struct {
	HouseID   string `json:"house_id"`
	AgentID   string `json:"agent_id"`
	CashierID string `json:"cashier_id"`
}

// Settings are chosen by the cashier before a round starts. A zero WinAmount
// is derived from stake, players and the house cut.
type Settings struct {
	Stake       int64  `json:"stake"`
	PlayerCount int    `json:"player_count"`
	WinAmount   int64  `json:"win_amount"`
	Pattern     string `json:"pattern"`
}

type ClaimStatus string

const (
	ClaimVerified ClaimStatus = "verified"
	ClaimRejected ClaimStatus = "rejected"
)

// Claim is a card's bid for the round, stamped with the number of calls made
// when it was submitted.
type Claim struct {
	SessionID string      `json:"session_id"`
	CardID    string      `json:"card_id"`
	CallIndex int         `json:"call_index"`
	Status    ClaimStatus `json:"status"`
	At        time.Time   `json:"at"`
}

// Record is the finalized, immutable summary of a finished session.
type Record struct {
	ID           string    `json:"id"`
	Round        int       `json:"round"`
	HouseID      string    `json:"house_id"`
	AgentID      string    `json:"agent_id"`
	CashierID    string    `json:"cashier_id"`
	Stake        int64     `json:"stake"`
	PlayerCount  int       `json:"player_count"`
	WinAmount    int64     `json:"win_amount"`
	Pattern      string    `json:"pattern"`
	WinnerCardID string    `json:"winner_card_id"`
	CallCount    int       `json:"call_count"`
	Calls        []int     `json:"calls"`
	CreatedAt    time.Time `json:"created_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// ClaimResult is returned for a verified claim.
type ClaimResult struct {
	Claim  Claim  `json:"claim"`
	Record Record `json:"record"`
}

// RecordSink receives each finished session exactly once. Emit runs after
// the session lock is released, on the goroutine of the winning claim.
type RecordSink interface {
	Emit(rec Record)
}

// RecordSinkFunc adapts a function to RecordSink.
type RecordSinkFunc func(Record)

func (f RecordSinkFunc) Emit(rec Record) { f(rec) }

// Options wires a Session to its collaborators. Patterns and Cards are
// required; the rest have defaults.
type Options struct {
	Identity
	Patterns *PatternLibrary
	Cards    CardLookup
	Sink     RecordSink
	Source   Source
	// HouseCutPercent is kept by the house when the win amount is derived.
	HouseCutPercent int
	// LockFalseClaims refuses further claims from a card after a rejected
	// one, for the rest of the round.
	LockFalseClaims bool
	Clock           func() time.Time
	NewID           func() string
}

// Snapshot is a consistent read-only view of a session.
type Snapshot struct {
	ID         string    `json:"id"`
	Round      int       `json:"round"`
	Identity   Identity  `json:"identity"`
	Status     Status    `json:"status"`
	Settings   Settings  `json:"settings"`
	Calls      []int     `json:"calls"`
	CallCount  int       `json:"call_count"`
	Remaining  int       `json:"remaining"`
	LastCall   int       `json:"last_call"`
	Winner     *Claim    `json:"winner,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Session runs one table's rounds. Every mutating method holds the write
// lock for its whole body, so a draw, a claim and a pause never interleave.
type Session struct {
	mu sync.RWMutex

	identity  Identity
	patterns  *PatternLibrary
	cards     CardLookup
	sink      RecordSink
	houseCut  int
	lockFalse bool
	clock     func() time.Time
	newID     func() string

	id         string
	round      int
	status     Status
	settings   Settings
	pattern    Pattern
	configured bool
	engine     *DrawEngine
	winner     *Claim
	locked     map[string]bool
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

// NewSession returns a session in the Created state.
func NewSession(opts Options) *Session {
	s := &Session{
		identity:  opts.Identity,
		patterns:  opts.Patterns,
		cards:     opts.Cards,
		sink:      opts.Sink,
		houseCut:  opts.HouseCutPercent,
		lockFalse: opts.LockFalseClaims,
		clock:     opts.Clock,
		newID:     opts.NewID,
		engine:    NewDrawEngine(opts.Source),
		locked:    make(map[string]bool),
		status:    StatusCreated,
		round:     1,
	}
	if s.patterns == nil {
		s.patterns = DefaultLibrary()
	}
	if s.sink == nil {
		s.sink = RecordSinkFunc(func(Record) {})
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.id = s.newID()
	s.createdAt = s.clock().UTC()
	return s
}

func (s *Session) illegal(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrIllegalTransition, op, s.status)
}

// Configure sets stake, player count and pattern. Only allowed while
// Created; the pattern name is resolved here so a bad name fails before the
// round starts.
func (s *Session) Configure(set Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusCreated {
		return s.illegal("configure")
	}
	if set.Stake <= 0 {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidSettings)
	}
	if set.PlayerCount <= 0 {
		return fmt.Errorf("%w: player count must be positive", ErrInvalidSettings)
	}
	if set.WinAmount < 0 {
		return fmt.Errorf("%w: win amount cannot be negative", ErrInvalidSettings)
	}
	p, err := s.patterns.Get(set.Pattern)
	if err != nil {
		return err
	}
	if set.Stake > math.MaxInt64/int64(set.PlayerCount) {
		return fmt.Errorf("%w: stake %d for %d players overflows the pot",
			ErrInvalidSettings, set.Stake, set.PlayerCount)
	}
	if set.WinAmount == 0 {
		set.WinAmount = payout(set.Stake*int64(set.PlayerCount), s.houseCut)
	}
	s.settings = set
	s.pattern = p
	s.configured = true
	return nil
}

// Start opens the round: Created -> Playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusCreated {
		return s.illegal("start")
	}
	if !s.configured {
		return ErrNotConfigured
	}
	s.engine.Reset()
	s.engine.Start()
	s.status = StatusPlaying
	s.startedAt = s.clock().UTC()
	return nil
}

// Pause halts drawing: Playing -> Paused. Pausing a paused session is a
// no-op so a repeated stop request is harmless.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusPaused:
		return nil
	case StatusPlaying:
		s.engine.Pause()
		s.status = StatusPaused
		return nil
	default:
		return s.illegal("pause")
	}
}

// Stop is the cashier's stop button; it behaves exactly like Pause.
func (s *Session) Stop() error { return s.Pause() }

// Resume continues drawing: Paused -> Playing.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPaused {
		return s.illegal("resume")
	}
	s.engine.Resume()
	s.status = StatusPlaying
	return nil
}

// Draw calls the next number. Only legal while Playing.
func (s *Session) Draw() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying {
		return 0, fmt.Errorf("%w: session is %s", ErrNotPlaying, s.status)
	}
	return s.engine.Draw()
}

// ClaimWin checks a card against the active pattern. The first verified
// claim finishes the round and emits its record; any later claim fails with
// ErrAlreadyWon. Claims are arbitrated in the order they acquire the lock.
// The record is emitted after the lock is released, so a slow sink never
// stalls the table.
func (s *Session) ClaimWin(ctx context.Context, cardID string) (ClaimResult, error) {
	// The card is read before taking the lock so storage latency does not
	// block draws. Cards are immutable for the purpose of a claim.
	card, lookupErr := s.lookup(ctx, cardID)

	res, err := s.settle(card, lookupErr)
	if err != nil {
		return ClaimResult{}, err
	}
	s.sink.Emit(res.Record)
	return res, nil
}

// settle arbitrates a claim under the write lock. Only the claim that
// finishes the round returns a nil error.
func (s *Session) settle(card Card, lookupErr error) (ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.winner != nil {
		return ClaimResult{}, fmt.Errorf("%w: card %s won at call %d",
			ErrAlreadyWon, s.winner.CardID, s.winner.CallIndex)
	}
	if s.status != StatusPlaying && s.status != StatusPaused {
		return ClaimResult{}, fmt.Errorf("%w: cannot claim while %s", ErrInvalidState, s.status)
	}
	if lookupErr != nil {
		return ClaimResult{}, lookupErr
	}
	if s.locked[card.ID] {
		return ClaimResult{}, fmt.Errorf("%w: %s", ErrCardLocked, card.ID)
	}

	calls := s.engine.History()
	if !CheckWin(card, calls, s.pattern) {
		if s.lockFalse {
			s.locked[card.ID] = true
		}
		return ClaimResult{}, fmt.Errorf("%w: card %s, pattern %s after %d calls",
			ErrNotAWinner, card.ID, s.pattern.Name(), len(calls))
	}

	now := s.clock().UTC()
	claim := Claim{
		SessionID: s.id,
		CardID:    card.ID,
		CallIndex: len(calls),
		Status:    ClaimVerified,
		At:        now,
	}
	s.winner = &claim
	s.engine.Pause()
	s.status = StatusFinished
	s.finishedAt = now

	return ClaimResult{Claim: claim, Record: s.record(calls)}, nil
}

func (s *Session) lookup(ctx context.Context, cardID string) (Card, error) {
	if s.cards == nil {
		return Card{}, fmt.Errorf("%w: no card store", ErrCardNotFound)
	}
	return s.cards.Get(ctx, s.identity.HouseID, cardID)
}

// payout is pot*(100-cut)/100 without forming the overflowing product.
func payout(pot int64, cut int) int64 {
	keep := int64(100 - cut)
	return pot/100*keep + pot%100*keep/100
}

func (s *Session) record(calls []int) Record {
	return Record{
		ID:           s.id,
		Round:        s.round,
		HouseID:      s.identity.HouseID,
		AgentID:      s.identity.AgentID,
		CashierID:    s.identity.CashierID,
		Stake:        s.settings.Stake,
		PlayerCount:  s.settings.PlayerCount,
		WinAmount:    s.settings.WinAmount,
		Pattern:      s.pattern.Name(),
		WinnerCardID: s.winner.CardID,
		CallCount:    len(calls),
		Calls:        calls,
		CreatedAt:    s.createdAt,
		FinishedAt:   s.finishedAt,
	}
}

// Reset aborts or closes the current round and prepares a fresh one in the
// Created state. Settings are kept. Already emitted records are untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Reset()
	s.winner = nil
	clear(s.locked)
	s.startedAt = time.Time{}
	s.finishedAt = time.Time{}
	if s.status != StatusCreated {
		s.id = s.newID()
		s.round++
		s.createdAt = s.clock().UTC()
	}
	s.status = StatusCreated
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) Identity() Identity { return s.identity }

func (s *Session) CallCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.CallCount()
}

func (s *Session) History() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.History()
}

// Remaining returns the size of the draw pool.
func (s *Session) Remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Remaining()
}

// Pattern returns the active pattern; zero before Configure.
func (s *Session) Pattern() Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pattern
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:         s.id,
		Round:      s.round,
		Identity:   s.identity,
		Status:     s.status,
		Settings:   s.settings,
		Calls:      s.engine.History(),
		CallCount:  s.engine.CallCount(),
		Remaining:  s.engine.Remaining(),
		LastCall:   s.engine.Last(),
		CreatedAt:  s.createdAt,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
	if s.winner != nil {
		w := *s.winner
		snap.Winner = &w
	}
	return snap
}
