package services

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEncodeRecord(t *testing.T) {
	rec := finishedRecord("s-9", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	b, err := EncodeRecord(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var msg RecordMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "session_finished" || msg.Record.ID != "s-9" || msg.Record.WinAmount != 32 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if houseListKey("house-1") != "bingo:house:house-1:records" {
		t.Fatalf("unexpected list key %s", houseListKey("house-1"))
	}
}

func TestNewRedisPublisher(t *testing.T) {
	if _, err := NewRedisPublisher("http://localhost:6379", ""); err == nil {
		t.Fatalf("expected bad scheme to be rejected")
	}
	p, err := NewRedisPublisher("redis://localhost:6379/2", "")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer p.Close()
	if p.channel != DefaultRecordChannel {
		t.Fatalf("expected default channel, got %s", p.channel)
	}
}
