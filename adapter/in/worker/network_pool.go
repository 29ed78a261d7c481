package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"network_server/pkg/metrics"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"
)

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	Workers          int
	BatchSize        int
	WorkerChanSize   int
	JobTimeout       time.Duration
	JobTimeoutByType map[JobType]time.Duration
	MetricsInterval  time.Duration
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers:         8,
		BatchSize:       10,
		WorkerChanSize:  100,
		JobTimeout:      30 * time.Second,
		MetricsInterval: time.Minute,
		JobTimeoutByType: map[JobType]time.Duration{
			JobDomainEvent: 15 * time.Second,
		},
	}
}

// Processor handles a single message.
type Processor interface {
	Process(ctx context.Context, msg *Message) error
}

// Pool runs messages through a go-pkgz/pool worker group. A message is
// acknowledged only after it is processed without error; failed messages
// stay pending at their source and are redelivered there.
type Pool struct {
	handler Processor
	config  *PoolConfig

	group *pool.WorkerGroup[*Message]

	ctx    context.Context
	cancel context.CancelFunc

	metrics   *PoolMetrics
	latencies *metrics.Registry
	log       zerolog.Logger

	started bool
	mu      sync.Mutex
}

// PoolMetrics holds pool metrics.
type PoolMetrics struct {
	JobsProcessed  int64
	JobsFailed     int64
	JobsDropped    int64
	AvgProcessTime int64 // milliseconds
	QueueSize      int32
}

// messageWorker implements pool.Worker for Message processing.
type messageWorker struct {
	pool *Pool
}

func (w *messageWorker) Do(ctx context.Context, msg *Message) error {
	return w.pool.processJob(ctx, msg)
}

func NewPool(handler Processor, config *PoolConfig, log zerolog.Logger) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		handler:   handler,
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
		metrics:   &PoolMetrics{},
		latencies: metrics.NewRegistry(1000),
		log:       log.With().Str("component", "worker_pool").Logger(),
	}
}

func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	p.group = pool.New[*Message](p.config.Workers, &messageWorker{pool: p}).
		WithBatchSize(p.config.BatchSize).
		WithWorkerChanSize(p.config.WorkerChanSize).
		WithContinueOnError()

	if err := p.group.Go(p.ctx); err != nil {
		return err
	}
	p.started = true

	if p.config.MetricsInterval > 0 {
		go p.metricsReporter()
	}

	p.log.Info().
		Int("workers", p.config.Workers).
		Int("batch_size", p.config.BatchSize).
		Msg("worker pool started")
	return nil
}

// Stop drains submitted jobs, waiting up to 30 seconds.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	p.log.Info().Msg("stopping worker pool...")

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer closeCancel()

	if err := p.group.Close(closeCtx); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Warn().Err(err).Msg("error closing worker pool")
	}
	p.cancel()

	p.log.Info().
		Int64("processed", atomic.LoadInt64(&p.metrics.JobsProcessed)).
		Int64("failed", atomic.LoadInt64(&p.metrics.JobsFailed)).
		Msg("worker pool stopped")
}

// Submit queues msg. It reports false when the pool is not running.
func (p *Pool) Submit(msg *Message) bool {
	p.mu.Lock()
	started, group := p.started, p.group
	p.mu.Unlock()

	if !started || group == nil {
		atomic.AddInt64(&p.metrics.JobsDropped, 1)
		return false
	}

	group.Submit(msg)
	atomic.AddInt32(&p.metrics.QueueSize, 1)
	return true
}

func (p *Pool) getJobTimeout(jobType JobType) time.Duration {
	if timeout, ok := p.config.JobTimeoutByType[jobType]; ok {
		return timeout
	}
	return p.config.JobTimeout
}

// processJob processes a single job with timeout and acknowledges it on
// success.
func (p *Pool) processJob(ctx context.Context, msg *Message) error {
	start := time.Now()
	defer atomic.AddInt32(&p.metrics.QueueSize, -1)

	timeout := p.getJobTimeout(msg.Type)
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.handler.Process(jobCtx, msg)
	elapsed := time.Since(start)
	p.updateAvgProcessTime(elapsed.Milliseconds())
	p.latencies.Record(msg.Type, elapsed)

	if err != nil {
		atomic.AddInt64(&p.metrics.JobsFailed, 1)
		p.log.Error().
			Err(err).
			Str("job_id", msg.ID).
			Str("job_type", msg.Type).
			Msg("job processing failed")
		return err
	}

	if err := msg.Ack(ctx); err != nil {
		p.log.Warn().Err(err).Str("job_id", msg.ID).Msg("job processed but ack failed")
	}
	atomic.AddInt64(&p.metrics.JobsProcessed, 1)
	return nil
}

func (p *Pool) updateAvgProcessTime(elapsed int64) {
	current := atomic.LoadInt64(&p.metrics.AvgProcessTime)
	if current == 0 {
		atomic.StoreInt64(&p.metrics.AvgProcessTime, elapsed)
		return
	}
	atomic.StoreInt64(&p.metrics.AvgProcessTime, (current*9+elapsed)/10)
}

func (p *Pool) metricsReporter() {
	ticker := time.NewTicker(p.config.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.log.Info().
				Int64("processed", atomic.LoadInt64(&p.metrics.JobsProcessed)).
				Int64("failed", atomic.LoadInt64(&p.metrics.JobsFailed)).
				Int64("dropped", atomic.LoadInt64(&p.metrics.JobsDropped)).
				Int64("avg_process_ms", atomic.LoadInt64(&p.metrics.AvgProcessTime)).
				Int32("queue_size", atomic.LoadInt32(&p.metrics.QueueSize)).
				Msg("worker pool metrics")

			for jobType, lat := range p.latencies.Snapshot() {
				p.log.Info().
					Str("job_type", jobType).
					Int64("count", lat.Count).
					Dur("p50", lat.P50).
					Dur("p95", lat.P95).
					Dur("p99", lat.P99).
					Dur("max", lat.Max).
					Msg("job latency")
			}
		}
	}
}

func (p *Pool) GetMetrics() PoolMetrics {
	return PoolMetrics{
		JobsProcessed:  atomic.LoadInt64(&p.metrics.JobsProcessed),
		JobsFailed:     atomic.LoadInt64(&p.metrics.JobsFailed),
		JobsDropped:    atomic.LoadInt64(&p.metrics.JobsDropped),
		AvgProcessTime: atomic.LoadInt64(&p.metrics.AvgProcessTime),
		QueueSize:      atomic.LoadInt32(&p.metrics.QueueSize),
	}
}
