package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-hall/game"
)

type sinkStub struct {
	mu   sync.Mutex
	recs []game.Record
}

func (s *sinkStub) Emit(rec game.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
}

func (s *sinkStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

func newTestHall(t *testing.T, interval time.Duration) (*Hall, *sinkStub) {
	t.Helper()
	cards := game.NewCardStore(game.NewMemoryCards())
	if _, err := cards.Create(context.Background(), "house-1", "1", rowGrid()); err != nil {
		t.Fatalf("create card: %v", err)
	}
	sink := &sinkStub{}
	hall := NewHall(HallOptions{
		Cards:           cards,
		Sink:            sink,
		HouseCutPercent: 20,
		DrawInterval:    interval,
	})
	t.Cleanup(hall.Shutdown)
	return hall, sink
}

func openTable(t *testing.T, hall *Hall, tableID string, id game.Identity) *Table {
	t.Helper()
	table, err := hall.Open(tableID, id)
	if err != nil {
		t.Fatalf("open %s: %v", tableID, err)
	}
	return table
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHallOpenAndLookup(t *testing.T) {
	hall, _ := newTestHall(t, time.Second)
	id := game.Identity{HouseID: "house-1", CashierID: "c1"}

	first := openTable(t, hall, "t2", id)
	if again := openTable(t, hall, "t2", id); again != first {
		t.Fatalf("opening an existing table must return it")
	}
	for _, other := range []game.Identity{
		{HouseID: "other", CashierID: "c1"},
		{HouseID: "house-1", CashierID: "c2"},
	} {
		if _, err := hall.Open("t2", other); !errors.Is(err, ErrTableConflict) {
			t.Fatalf("expected ErrTableConflict for %+v, got %v", other, err)
		}
	}
	if got := first.Session().Identity(); got != id {
		t.Fatalf("conflicting open changed the identity to %+v", got)
	}
	openTable(t, hall, "t1", id)

	if _, err := hall.Table("missing"); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	states := hall.Snapshots()
	if len(states) != 2 || states[0].Table != "t1" || states[1].Table != "t2" {
		t.Fatalf("unexpected snapshots %+v", states)
	}
	if states[1].State.Identity.HouseID != "house-1" {
		t.Fatalf("table kept the wrong identity: %+v", states[1].State.Identity)
	}
	if states[0].State.Status != game.StatusCreated {
		t.Fatalf("expected created, got %s", states[0].State.Status)
	}
}

func TestTableManualRoundAndClaim(t *testing.T) {
	ctx := context.Background()
	hall, sink := newTestHall(t, time.Second)
	table := openTable(t, hall, "t1", game.Identity{HouseID: "house-1", CashierID: "c1"})

	if err := table.Configure(game.Settings{Stake: 10, PlayerCount: 4, Pattern: "row_1"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := table.Start(false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := table.Claim(ctx, "1"); !errors.Is(err, game.ErrNotAWinner) {
		t.Fatalf("expected ErrNotAWinner before any call, got %v", err)
	}
	for {
		if _, err := table.Draw(); errors.Is(err, game.ErrEmptyPool) {
			break
		} else if err != nil {
			t.Fatalf("draw: %v", err)
		}
	}
	if _, err := table.Claim(ctx, "missing"); !errors.Is(err, game.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
	res, err := table.Claim(ctx, "1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Record.WinAmount != 32 || res.Record.CallCount != game.MaxNumber {
		t.Fatalf("unexpected record %+v", res.Record)
	}
	if table.State().State.Status != game.StatusFinished {
		t.Fatalf("expected finished table")
	}
	if sink.count() != 1 {
		t.Fatalf("expected one record emitted, got %d", sink.count())
	}

	finishedID := res.Record.ID
	table.Reset()
	st := table.State().State
	if st.Status != game.StatusCreated || st.ID == finishedID || st.Round != 2 || st.CallCount != 0 {
		t.Fatalf("unexpected state after reset %+v", st)
	}
	if st.Settings.Pattern != "row_1" {
		t.Fatalf("settings should survive reset, got %+v", st.Settings)
	}
}

func TestTableAutoCallerStopsOnPause(t *testing.T) {
	hall, _ := newTestHall(t, 2*time.Millisecond)
	table := openTable(t, hall, "t1", game.Identity{HouseID: "house-1"})
	if err := table.Configure(game.Settings{Stake: 5, PlayerCount: 2, Pattern: "full_house"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := table.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !table.State().Auto {
		t.Fatalf("expected auto caller running")
	}
	waitFor(t, "three automatic calls", func() bool { return table.Session().CallCount() >= 3 })

	if err := table.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	calls := table.Session().CallCount()
	time.Sleep(20 * time.Millisecond)
	if got := table.Session().CallCount(); got != calls {
		t.Fatalf("caller kept drawing after pause: %d -> %d", calls, got)
	}
	if table.State().Auto {
		t.Fatalf("auto flag should clear on pause")
	}

	if err := table.Resume(true); err != nil {
		t.Fatalf("resume: %v", err)
	}
	waitFor(t, "pool exhaustion", func() bool { return table.Session().Remaining() == 0 })
	waitFor(t, "caller to detach", func() bool { return !table.State().Auto })
	if table.Session().Status() != game.StatusPlaying {
		t.Fatalf("an exhausted pool does not end the round, got %s", table.Session().Status())
	}
}

func TestTableWinStopsAutoCaller(t *testing.T) {
	hall, _ := newTestHall(t, time.Millisecond)
	table := openTable(t, hall, "t1", game.Identity{HouseID: "house-1"})
	if err := table.Configure(game.Settings{Stake: 5, PlayerCount: 2, Pattern: "four_corners"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := table.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}

	var card game.Card
	card.Grid = rowGrid()
	pattern := table.Session().Pattern()
	waitFor(t, "corners called", func() bool {
		return game.CheckWin(card, table.Session().History(), pattern)
	})
	if _, err := table.Claim(context.Background(), "1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if table.State().Auto {
		t.Fatalf("auto caller should stop on a win")
	}
	if _, err := table.Draw(); !errors.Is(err, game.ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying after win, got %v", err)
	}
}
