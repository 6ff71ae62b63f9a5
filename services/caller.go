package services

import (
	"context"
	"errors"
	"time"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/utils/logger"
)

// startCaller launches the automatic caller for the table unless one is
// already running.
func (t *Table) startCaller() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelAuto != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancelAuto = cancel
	t.autoDone = done
	go t.runCaller(ctx, done)
}

// stopCaller cancels the automatic caller and waits for it to exit, so no
// draw from it can land after stopCaller returns.
func (t *Table) stopCaller() {
	t.mu.Lock()
	cancel, done := t.cancelAuto, t.autoDone
	t.cancelAuto, t.autoDone = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Table) runCaller(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Table %s] caller panic: %v", t.ID, r)
		}
	}()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debugf("[Table %s] number draw canceled", t.ID)
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if _, err := t.Draw(); err != nil {
				if errors.Is(err, game.ErrEmptyPool) {
					logger.Infof("[Table %s] all numbers called", t.ID)
				} else if !errors.Is(err, game.ErrNotPlaying) {
					logger.Errorf("[Table %s] draw: %v", t.ID, err)
				}
				t.detachCaller(done)
				return
			}
		}
	}
}

// detachCaller clears the caller fields when the caller stops by itself.
func (t *Table) detachCaller(done chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.autoDone == done {
		t.cancelAuto()
		t.cancelAuto, t.autoDone = nil, nil
	}
}
