package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/utils/logger"
)

var (
	// ErrTableNotFound is returned for an unknown table id.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableConflict is returned when an open table is claimed for
	// different staff.
	ErrTableConflict = errors.New("table belongs to another identity")
)

// HallOptions configures every table opened by a Hall.
type HallOptions struct {
	Patterns        *game.PatternLibrary
	Cards           game.CardLookup
	Sink            game.RecordSink
	HouseCutPercent int
	LockFalseClaims bool
	DrawInterval    time.Duration
}

// Hall keeps one session per table. Tables are independent; the hall lock
// only guards the table map.
type Hall struct {
	opts   HallOptions
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewHall(opts HallOptions) *Hall {
	if opts.Patterns == nil {
		opts.Patterns = game.DefaultLibrary()
	}
	if opts.DrawInterval <= 0 {
		opts.DrawInterval = 6 * time.Second
	}
	return &Hall{opts: opts, tables: make(map[string]*Table)}
}

func (h *Hall) Patterns() *game.PatternLibrary { return h.opts.Patterns }

// Open returns the table with the given id, creating it for the identity if
// it does not exist yet. Reopening with a different identity fails, since
// the house scopes which cards the table accepts.
func (h *Hall) Open(tableID string, id game.Identity) (*Table, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.tables[tableID]; ok {
		if owner := t.session.Identity(); owner != id {
			return nil, fmt.Errorf("%w: %s is open for house %s cashier %s",
				ErrTableConflict, tableID, owner.HouseID, owner.CashierID)
		}
		return t, nil
	}
	t := &Table{
		ID:       tableID,
		interval: h.opts.DrawInterval,
		clients:  make(map[*Client]struct{}),
		session: game.NewSession(game.Options{
			Identity:        id,
			Patterns:        h.opts.Patterns,
			Cards:           h.opts.Cards,
			Sink:            h.opts.Sink,
			HouseCutPercent: h.opts.HouseCutPercent,
			LockFalseClaims: h.opts.LockFalseClaims,
		}),
	}
	h.tables[tableID] = t
	logger.Infof("[Table %s] opened for house %s cashier %s", tableID, id.HouseID, id.CashierID)
	return t, nil
}

func (h *Hall) Table(tableID string) (*Table, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	return t, nil
}

// Snapshots returns the state of every table ordered by table id.
func (h *Hall) Snapshots() []TableState {
	h.mu.RLock()
	tables := make([]*Table, 0, len(h.tables))
	for _, t := range h.tables {
		tables = append(tables, t)
	}
	h.mu.RUnlock()

	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	out := make([]TableState, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.State())
	}
	return out
}

// Shutdown stops every auto caller and disconnects clients.
func (h *Hall) Shutdown() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, t := range h.tables {
		t.stopCaller()
		t.closeClients()
	}
}

// Table is one cashier's game: its session, the optional automatic caller
// and the screens watching it.
type Table struct {
	ID       string
	session  *game.Session
	interval time.Duration

	mu         sync.Mutex
	clients    map[*Client]struct{}
	cancelAuto context.CancelFunc
	autoDone   chan struct{}
}

// TableState is the payload broadcast to screens.
type TableState struct {
	Table string        `json:"table"`
	Auto  bool          `json:"auto"`
	State game.Snapshot `json:"state"`
}

type event struct {
	Type    string      `json:"type"`
	Table   string      `json:"table"`
	Number  int         `json:"number,omitempty"`
	Letter  string      `json:"letter,omitempty"`
	Claim   *game.Claim `json:"claim,omitempty"`
	Message string      `json:"message,omitempty"`
	State   *TableState `json:"state,omitempty"`
}

func (t *Table) Session() *game.Session { return t.session }

func (t *Table) State() TableState {
	t.mu.Lock()
	auto := t.cancelAuto != nil
	t.mu.Unlock()
	return TableState{Table: t.ID, Auto: auto, State: t.session.Snapshot()}
}

func (t *Table) Configure(set game.Settings) error {
	if err := t.session.Configure(set); err != nil {
		return err
	}
	logger.Infof("[Table %s] configured stake=%d players=%d pattern=%s",
		t.ID, set.Stake, set.PlayerCount, set.Pattern)
	t.broadcastState()
	return nil
}

// Start opens the round. With auto set, numbers are called every draw
// interval until the round is paused, won, reset or the pool runs out.
func (t *Table) Start(auto bool) error {
	if err := t.session.Start(); err != nil {
		return err
	}
	logger.Infof("[Table %s] round %s started", t.ID, t.session.ID())
	if auto {
		t.startCaller()
	}
	t.broadcastState()
	return nil
}

func (t *Table) Draw() (int, error) {
	n, err := t.session.Draw()
	if err != nil {
		return 0, err
	}
	t.broadcastCall(n)
	return n, nil
}

func (t *Table) Pause() error {
	t.stopCaller()
	if err := t.session.Pause(); err != nil {
		return err
	}
	logger.Infof("[Table %s] paused after %d calls", t.ID, t.session.CallCount())
	t.broadcastState()
	return nil
}

// Resume continues the round, restarting the automatic caller when asked.
func (t *Table) Resume(auto bool) error {
	if err := t.session.Resume(); err != nil {
		return err
	}
	if auto {
		t.startCaller()
	}
	t.broadcastState()
	return nil
}

func (t *Table) Claim(ctx context.Context, cardID string) (game.ClaimResult, error) {
	res, err := t.session.ClaimWin(ctx, cardID)
	if err != nil {
		logger.Infof("[Table %s] claim by card %s rejected: %v", t.ID, cardID, err)
		t.broadcast(event{Type: "claim_rejected", Table: t.ID, Message: err.Error()})
		return res, err
	}
	t.stopCaller()
	logger.Infof("[Table %s] card %s wins round %s at call %d",
		t.ID, cardID, res.Claim.SessionID, res.Claim.CallIndex)
	t.broadcast(event{Type: "winner", Table: t.ID, Claim: &res.Claim})
	t.broadcastState()
	return res, nil
}

func (t *Table) Reset() {
	t.stopCaller()
	t.session.Reset()
	logger.Infof("[Table %s] reset, next round %s", t.ID, t.session.ID())
	t.broadcastState()
}

// -------------------- Broadcast --------------------
func (t *Table) addClient(c *Client) {
	t.mu.Lock()
	t.clients[c] = struct{}{}
	total := len(t.clients)
	t.mu.Unlock()
	logger.Debugf("[Table %s] screen joined (total=%d)", t.ID, total)
}

func (t *Table) removeClient(c *Client) {
	t.mu.Lock()
	delete(t.clients, c)
	t.mu.Unlock()
	c.Close()
}

func (t *Table) closeClients() {
	t.mu.Lock()
	clients := t.clients
	t.clients = make(map[*Client]struct{})
	t.mu.Unlock()
	for c := range clients {
		c.Close()
	}
}

func (t *Table) broadcastCall(n int) {
	t.broadcast(event{
		Type:   "call",
		Table:  t.ID,
		Number: n,
		Letter: string(game.ColumnLetter(game.ColumnOf(n))),
	})
}

func (t *Table) broadcastState() {
	state := t.State()
	t.broadcast(event{Type: "state", Table: t.ID, State: &state})
}

func (t *Table) broadcast(ev event) {
	b, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("[Table %s] encode %s: %v", t.ID, ev.Type, err)
		return
	}
	t.mu.Lock()
	clients := make([]*Client, 0, len(t.clients))
	for c := range t.clients {
		clients = append(clients, c)
	}
	t.mu.Unlock()

	for _, c := range clients {
		if !c.trySend(b) {
			logger.Debugf("[Table %s] dropping %s to slow screen", t.ID, ev.Type)
		}
	}
}
