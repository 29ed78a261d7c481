package messaging

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestConsumerConfig_WithDefaults(t *testing.T) {
	got := ConsumerConfig{MaxRetries: 7}.withDefaults()

	if got.BatchSize != 10 || got.Block != 5*time.Second {
		t.Errorf("read defaults = %d, %v", got.BatchSize, got.Block)
	}
	if got.PendingCheckInterval != 30*time.Second || got.PendingIdleTime != 2*time.Minute {
		t.Errorf("pending defaults = %v, %v", got.PendingCheckInterval, got.PendingIdleTime)
	}
	if got.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, explicit value must be kept", got.MaxRetries)
	}
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		want    string
		wantErr bool
	}{
		{"payload", map[string]any{"data": `{"type":"post_created"}`}, `{"type":"post_created"}`, false},
		{"missing data", map[string]any{"other": "x"}, "", true},
		{"wrong type", map[string]any{"data": 12}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEntry(redis.XMessage{ID: "1-0", Values: tt.values})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("data = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeadLetterValues(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := redis.XMessage{ID: "1700000000000-0", Values: map[string]any{"data": "{}"}}

	got := deadLetterValues("network:events", "network-workers", "w1", entry, at)

	want := map[string]any{
		"original_stream": "network:events",
		"original_id":     "1700000000000-0",
		"original_data":   "{}",
		"failed_at":       "2026-03-01T12:00:00Z",
		"group":           "network-workers",
		"consumer":        "w1",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}
