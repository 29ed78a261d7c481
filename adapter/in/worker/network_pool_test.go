package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type funcProcessor func(ctx context.Context, msg *Message) error

func (f funcProcessor) Process(ctx context.Context, msg *Message) error { return f(ctx, msg) }

func TestPool_AcksOnlySuccessfulJobs(t *testing.T) {
	proc := funcProcessor(func(ctx context.Context, msg *Message) error {
		if msg.ID == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	cfg := DefaultPoolConfig()
	cfg.Workers = 2
	cfg.BatchSize = 1
	cfg.MetricsInterval = 0
	p := NewPool(proc, cfg, zerolog.New(io.Discard))

	if p.Submit(NewMessage(JobDomainEvent, "early", nil)) {
		t.Fatal("Submit before Start should be rejected")
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var acked atomic.Int32
	ack := func(ctx context.Context) error {
		acked.Add(1)
		return nil
	}
	for _, id := range []string{"a", "b", "bad", "c"} {
		if !p.Submit(NewMessage(JobDomainEvent, id, nil).WithAck(ack)) {
			t.Fatalf("Submit(%s) rejected", id)
		}
	}
	p.Stop()

	if got := acked.Load(); got != 3 {
		t.Errorf("acked = %d, want 3", got)
	}
	m := p.GetMetrics()
	if m.JobsProcessed != 3 || m.JobsFailed != 1 || m.JobsDropped != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if lat := p.latencies.Snapshot()[JobDomainEvent]; lat.Count != 4 {
		t.Errorf("latency samples = %d, want 4", lat.Count)
	}
}

func TestPool_JobTimeoutByType(t *testing.T) {
	cfg := DefaultPoolConfig()
	cfg.JobTimeout = time.Minute
	cfg.JobTimeoutByType = map[JobType]time.Duration{JobDomainEvent: time.Second}
	p := NewPool(funcProcessor(func(context.Context, *Message) error { return nil }), cfg, zerolog.New(io.Discard))

	if got := p.getJobTimeout(JobDomainEvent); got != time.Second {
		t.Errorf("domain event timeout = %v, want 1s", got)
	}
	if got := p.getJobTimeout("other"); got != time.Minute {
		t.Errorf("default timeout = %v, want 1m", got)
	}
}

func TestNewPool_Defaults(t *testing.T) {
	proc := funcProcessor(func(context.Context, *Message) error { return nil })

	p := NewPool(proc, nil, zerolog.New(io.Discard))
	if p.config.Workers != 8 || p.latencies == nil || p.metrics == nil {
		t.Errorf("nil config: workers = %d, latencies = %v, metrics = %v", p.config.Workers, p.latencies, p.metrics)
	}

	p = NewPool(proc, &PoolConfig{Workers: -2}, zerolog.New(io.Discard))
	if p.config.Workers != 1 {
		t.Errorf("Workers = %d, want clamp to 1", p.config.Workers)
	}
	if got := p.GetMetrics(); got.JobsProcessed != 0 || got.JobsFailed != 0 {
		t.Errorf("fresh pool metrics = %+v", got)
	}
}
