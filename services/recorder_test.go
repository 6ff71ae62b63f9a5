package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/models"
)

type publisherStub struct {
	mu   sync.Mutex
	got  []game.Record
	fail bool
}

func (p *publisherStub) Publish(_ context.Context, rec game.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, rec)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

func (p *publisherStub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func finishedRecord(id string, finished time.Time) game.Record {
	return game.Record{
		ID:           id,
		Round:        1,
		HouseID:      "house-1",
		AgentID:      "agent-1",
		CashierID:    "cashier-1",
		Stake:        10,
		PlayerCount:  4,
		WinAmount:    32,
		Pattern:      "row_1",
		WinnerCardID: "7",
		CallCount:    3,
		Calls:        []int{1, 16, 31},
		CreatedAt:    finished.Add(-5 * time.Minute),
		FinishedAt:   finished,
	}
}

func TestRecordStoreSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewRecordStore(db)
	rec := finishedRecord("s-1", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	var n int64
	db.Table("game_records").Count(&n)
	if n != 1 {
		t.Fatalf("expected one row, got %d", n)
	}

	row, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.WinAmount != 32 || row.WinnerCardID != "7" || !row.EndTime.Equal(rec.FinishedAt) {
		t.Fatalf("unexpected row %+v", row)
	}
	var calls []int
	if err := json.Unmarshal(row.NumbersJSON, &calls); err != nil {
		t.Fatalf("decode calls: %v", err)
	}
	if len(calls) != 3 || calls[2] != 31 {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestRecorderDeliverPublishesAfterSave(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore(setupTestDB(t))
	ok := &publisherStub{}
	broken := &publisherStub{fail: true}
	rec := NewRecorder(store, broken, ok)

	if err := rec.Deliver(ctx, finishedRecord("s-2", time.Now().UTC())); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if ok.count() != 1 || broken.count() != 1 {
		t.Fatalf("expected both publishers called once, got %d and %d", ok.count(), broken.count())
	}
	if _, err := store.Get(ctx, "s-2"); err != nil {
		t.Fatalf("record not saved: %v", err)
	}
}

func TestRecorderDeliverGivesUpAfterRetries(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Migrator().DropTable("game_records"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	pub := &publisherStub{}
	rec := NewRecorder(NewRecordStore(db), pub)
	rec.attempts = 3
	rec.backoff = time.Millisecond

	err := rec.Deliver(context.Background(), finishedRecord("s-3", time.Now().UTC()))
	if err == nil {
		t.Fatalf("expected error when the table is missing")
	}
	if pub.count() != 0 {
		t.Fatalf("unsaved record must not be published")
	}
}

func TestRecorderRunDrainsOnCancel(t *testing.T) {
	store := NewRecordStore(setupTestDB(t))
	rec := NewRecorder(store)
	for _, id := range []string{"a", "b", "c"} {
		rec.Emit(finishedRecord(id, time.Now().UTC()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("recorder did not stop")
	}

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Get(context.Background(), id); err != nil {
			t.Fatalf("record %s not saved: %v", id, err)
		}
	}
}

func TestSessionEmitsIntoRecorder(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore(setupTestDB(t))
	rec := NewRecorder(store)
	cards := game.NewCardStore(game.NewMemoryCards())
	if _, err := cards.Create(ctx, "house-1", "7", rowGrid()); err != nil {
		t.Fatalf("create card: %v", err)
	}

	s := game.NewSession(game.Options{
		Identity: game.Identity{HouseID: "house-1", CashierID: "cashier-1"},
		Cards:    cards,
		Sink:     rec,
	})
	if err := s.Configure(game.Settings{Stake: 10, PlayerCount: 4, Pattern: "row_1"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for {
		if _, err := s.Draw(); errors.Is(err, game.ErrEmptyPool) {
			break
		}
	}
	res, err := s.ClaimWin(ctx, "7")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	queued := rec.take()
	if len(queued) != 1 || queued[0].ID != res.Record.ID {
		t.Fatalf("expected the claimed record queued, got %+v", queued)
	}
	if err := rec.Deliver(ctx, queued[0]); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	row, err := store.Get(ctx, res.Record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.CallCount != 75 || row.CashierID != "cashier-1" {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestIdleRecorderDoesNotBlockTables(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore(setupTestDB(t))
	rec := NewRecorder(store)
	cards := game.NewCardStore(game.NewMemoryCards())
	if _, err := cards.Create(ctx, "house-1", "7", rowGrid()); err != nil {
		t.Fatalf("create card: %v", err)
	}

	// No worker runs yet; every round still has to finish promptly.
	sessions := make([]*game.Session, 3)
	for i := range sessions {
		s := game.NewSession(game.Options{
			Identity: game.Identity{HouseID: "house-1"},
			Cards:    cards,
			Sink:     rec,
		})
		if err := s.Configure(game.Settings{Stake: 10, PlayerCount: 2, Pattern: "row_1"}); err != nil {
			t.Fatalf("configure: %v", err)
		}
		if err := s.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
		for {
			if _, err := s.Draw(); errors.Is(err, game.ErrEmptyPool) {
				break
			}
		}
		sessions[i] = s
	}

	for i, s := range sessions {
		done := make(chan error, 1)
		go func() {
			_, err := s.ClaimWin(ctx, "7")
			done <- err
		}()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("claim %d: %v", i, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("claim %d blocked on an idle recorder", i)
		}
		if s.Status() != game.StatusFinished {
			t.Fatalf("session %d not finished", i)
		}
		s.Reset()
	}
	if rec.Pending() != len(sessions) {
		t.Fatalf("expected %d pending records, got %d", len(sessions), rec.Pending())
	}

	runCtx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		rec.Run(runCtx)
		close(stopped)
	}()
	waitFor(t, "pending records saved", func() bool {
		var n int64
		store.db.Model(&models.GameRecord{}).Where("house_id = ?", "house-1").Count(&n)
		return n == int64(len(sessions))
	})
	cancel()
	<-stopped
	if rec.Pending() != 0 {
		t.Fatalf("expected an empty queue, got %d", rec.Pending())
	}
}

func TestStoppedRecorderKeepsLateRecords(t *testing.T) {
	store := NewRecordStore(setupTestDB(t))
	rec := NewRecorder(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	emitted := make(chan struct{})
	go func() {
		rec.Emit(finishedRecord("late", time.Now().UTC()))
		close(emitted)
	}()
	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatalf("Emit blocked on a stopped recorder")
	}
	if rec.Pending() != 1 {
		t.Fatalf("late record should stay queued, pending=%d", rec.Pending())
	}
}
