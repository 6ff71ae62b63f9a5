package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/models"
	"github.com/bellapacxx/bingo-hall/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Publisher forwards finished records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec game.Record) error
}

// RecordStore persists finished session records.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

func recordModel(rec game.Record) (models.GameRecord, error) {
	calls := rec.Calls
	if calls == nil {
		calls = []int{}
	}
	raw, err := json.Marshal(calls)
	if err != nil {
		return models.GameRecord{}, err
	}
	return models.GameRecord{
		SessionID:    rec.ID,
		Round:        rec.Round,
		HouseID:      rec.HouseID,
		AgentID:      rec.AgentID,
		CashierID:    rec.CashierID,
		Stake:        rec.Stake,
		PlayerCount:  rec.PlayerCount,
		WinAmount:    rec.WinAmount,
		Pattern:      rec.Pattern,
		WinnerCardID: rec.WinnerCardID,
		CallCount:    rec.CallCount,
		NumbersJSON:  datatypes.JSON(raw),
		StartTime:    rec.CreatedAt.UTC(),
		EndTime:      rec.FinishedAt.UTC(),
	}, nil
}

// Save writes rec once. Saving the same session id again is a no-op, so a
// retried delivery never duplicates a game.
func (s *RecordStore) Save(ctx context.Context, rec game.Record) error {
	row, err := recordModel(rec)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&row).Error
}

// Get returns the stored record for a session id.
func (s *RecordStore) Get(ctx context.Context, sessionID string) (models.GameRecord, error) {
	var row models.GameRecord
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	return row, err
}

// Recorder is the game.RecordSink used by the hall. Emit queues the record;
// a worker started with Run saves it and then hands it to the publishers.
type Recorder struct {
	store      *RecordStore
	publishers []Publisher
	attempts   int
	backoff    time.Duration

	mu      sync.Mutex
	pending []game.Record
	wake    chan struct{}
}

func NewRecorder(store *RecordStore, publishers ...Publisher) *Recorder {
	return &Recorder{
		store:      store,
		publishers: publishers,
		attempts:   5,
		backoff:    500 * time.Millisecond,
		wake:       make(chan struct{}, 1),
	}
}

// Emit queues rec and returns at once. The queue is unbounded: a finished
// game is never dropped and a slow database never blocks a claim.
func (r *Recorder) Emit(rec game.Record) {
	r.mu.Lock()
	r.pending = append(r.pending, rec)
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Pending returns how many records are queued and not yet delivered.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Recorder) take() []game.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.pending
	r.pending = nil
	return batch
}

// Run delivers queued records until ctx is cancelled, then drains what is
// left with a short deadline. Cancel ctx only once nothing emits anymore.
// Cancellation stops the loop; it does not abort a save in flight.
func (r *Recorder) Run(ctx context.Context) {
	deliverCtx := context.WithoutCancel(ctx)
	for {
		for _, rec := range r.take() {
			r.deliverLogged(deliverCtx, rec)
		}
		select {
		case <-r.wake:
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for {
		batch := r.take()
		if len(batch) == 0 {
			return
		}
		for _, rec := range batch {
			r.deliverLogged(ctx, rec)
		}
	}
}

func (r *Recorder) deliverLogged(ctx context.Context, rec game.Record) {
	if err := r.Deliver(ctx, rec); err != nil {
		logger.Errorf("[Recorder] session %s not recorded: %v", rec.ID, err)
	}
}

// Deliver saves rec, retrying with a doubling backoff, then publishes it.
// Publish failures are logged; the database is the record of truth.
func (r *Recorder) Deliver(ctx context.Context, rec game.Record) error {
	wait := r.backoff
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = r.store.Save(ctx, rec); err == nil {
			break
		}
		logger.Warnf("[Recorder] save session %s attempt %d failed: %v", rec.ID, attempt, err)
		if attempt == r.attempts {
			return fmt.Errorf("save after %d attempts: %w", r.attempts, err)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	logger.Infof("[Recorder] session %s recorded: house=%s winner=%s calls=%d",
		rec.ID, rec.HouseID, rec.WinnerCardID, rec.CallCount)

	for _, p := range r.publishers {
		if err := p.Publish(ctx, rec); err != nil {
			logger.Errorf("[Recorder] publish session %s: %v", rec.ID, err)
		}
	}
	return nil
}
