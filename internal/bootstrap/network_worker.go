package bootstrap

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"network_server/adapter/in/worker"
	"network_server/adapter/out/messaging"
	"network_server/config"
	"network_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker consumes domain events from Redis Streams and applies their
// reputation, badge and activity side effects.
type Worker struct {
	pool     *worker.Pool
	consumer *messaging.Consumer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

func NewWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	if err := deps.BadgeEvaluator.SeedCatalog(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	processor := worker.NewEventProcessor(
		deps.ReputationEngine,
		deps.BadgeEvaluator,
		deps.ActivityAggregator,
		deps.NotificationService,
	)

	poolConfig := worker.DefaultPoolConfig()
	poolConfig.Workers = cfg.WorkerMax
	poolConfig.WorkerChanSize = cfg.WorkerQueueSize
	poolConfig.JobTimeout = cfg.WorkerTimeout

	pool := worker.NewPool(worker.NewHandler(processor), poolConfig, zlog)
	router := worker.NewStreamRouter(pool)

	wctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		pool:   pool,
		deps:   deps,
		ctx:    wctx,
		cancel: cancel,
		zlog:   zlog,
	}

	w.consumer = messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
		Group:                "network-workers",
		Consumer:             cfg.WorkerID,
		Streams:              router.Streams(),
		Handler:              router,
		Logger:               zlog,
		BatchSize:            cfg.ConsumerBatchSize,
		Block:                time.Duration(cfg.ConsumerBlockMS) * time.Millisecond,
		PendingCheckInterval: time.Duration(cfg.ConsumerPendingCheckSec) * time.Second,
		MaxRetries:           cfg.ConsumerMaxRetries,
	})
	logger.Info("Redis Stream Consumer configured for %d streams", len(router.Streams()))

	return w, cleanup, nil
}

// Start blocks until Stop is called.
func (w *Worker) Start() error {
	if err := w.pool.Start(); err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.zlog.Info().Msg("Starting Redis Stream Consumer...")
		if err := w.consumer.Run(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.zlog.Error().Err(err).Msg("Redis Stream Consumer error")
		}
	}()

	<-w.ctx.Done()
	return nil
}

// Stop halts intake first, then drains the pool so in-flight events are
// acked or left pending for redelivery.
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.pool.Stop()

	m := w.pool.GetMetrics()
	w.zlog.Info().
		Int64("processed", m.JobsProcessed).
		Int64("failed", m.JobsFailed).
		Int64("dropped", m.JobsDropped).
		Msg("worker stopped")
}
