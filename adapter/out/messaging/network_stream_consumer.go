package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DeadLetterPrefix is prepended to a stream name to form its DLQ stream.
const DeadLetterPrefix = "dlq:"

// Delivery is one stream entry handed to a DeliveryHandler. The handler
// calls Ack once the entry is fully processed; unacknowledged entries are
// reclaimed after PendingIdleTime and dead-lettered after MaxRetries.
type Delivery struct {
	Stream string
	ID     string
	Data   []byte
	Ack    func(ctx context.Context) error
}

type DeliveryHandler interface {
	Handle(ctx context.Context, d Delivery) error
}

// ConsumerConfig holds consumer configuration. Zero values of the optional
// fields fall back to defaults.
type ConsumerConfig struct {
	Group    string
	Consumer string
	Streams  []string
	Handler  DeliveryHandler
	Logger   zerolog.Logger

	BatchSize            int
	Block                time.Duration
	PendingCheckInterval time.Duration
	PendingIdleTime      time.Duration
	MaxRetries           int
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Block <= 0 {
		c.Block = 5 * time.Second
	}
	if c.PendingCheckInterval <= 0 {
		c.PendingCheckInterval = 30 * time.Second
	}
	if c.PendingIdleTime <= 0 {
		c.PendingIdleTime = 2 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// Consumer reads the domain-event streams as one member of a consumer group.
type Consumer struct {
	client *redis.Client
	cfg    ConsumerConfig
	log    zerolog.Logger
}

func NewConsumer(client *redis.Client, cfg *ConsumerConfig) *Consumer {
	c := cfg.withDefaults()
	return &Consumer{
		client: client,
		cfg:    c,
		log:    c.Logger.With().Str("group", c.Group).Str("consumer", c.Consumer).Logger(),
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Strs("streams", c.cfg.Streams).Msg("starting consumer")

	for _, stream := range c.cfg.Streams {
		if err := c.ensureGroup(ctx, stream); err != nil {
			c.log.Warn().Err(err).Str("stream", stream).Msg("consumer group not created")
		}
	}

	go c.reclaimLoop(ctx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		streams, err := c.read(ctx)
		switch {
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
			continue
		case err != nil:
			c.log.Error().Err(err).Msg("stream read failed")
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.deliver(ctx, s.Stream, msg)
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context, stream string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, c.cfg.Group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (c *Consumer) read(ctx context.Context) ([]redis.XStream, error) {
	n := len(c.cfg.Streams)
	if n == 0 {
		return nil, redis.Nil
	}

	// XREADGROUP takes every stream name followed by one ID per stream.
	args := make([]string, 0, 2*n)
	args = append(args, c.cfg.Streams...)
	for i := 0; i < n; i++ {
		args = append(args, ">")
	}

	return c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  args,
		Count:    int64(c.cfg.BatchSize),
		Block:    c.cfg.Block,
	}).Result()
}

// deliver hands one entry to the handler. Entries without a payload can never
// be processed, so they are acked and dropped here.
func (c *Consumer) deliver(ctx context.Context, stream string, msg redis.XMessage) {
	log := c.log.With().Str("stream", stream).Str("id", msg.ID).Logger()

	data, err := decodeEntry(msg)
	if err != nil {
		log.Error().Err(err).Msg("dropping undecodable entry")
		if err := c.ack(ctx, stream, msg.ID); err != nil {
			log.Error().Err(err).Msg("ack failed")
		}
		return
	}

	d := Delivery{
		Stream: stream,
		ID:     msg.ID,
		Data:   data,
		Ack: func(ctx context.Context) error {
			return c.ack(ctx, stream, msg.ID)
		},
	}
	if err := c.cfg.Handler.Handle(ctx, d); err != nil {
		log.Error().Err(err).Msg("handler rejected entry; it stays pending")
	}
}

func (c *Consumer) ack(ctx context.Context, stream, id string) error {
	return c.client.XAck(ctx, stream, c.cfg.Group, id).Err()
}

func decodeEntry(msg redis.XMessage) ([]byte, error) {
	raw, ok := msg.Values["data"]
	if !ok {
		return nil, fmt.Errorf("entry %s has no data field", msg.ID)
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("entry %s data is %T, want string", msg.ID, raw)
	}
	return []byte(s), nil
}

func (c *Consumer) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PendingCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, stream := range c.cfg.Streams {
				c.reclaim(ctx, stream)
			}
		}
	}
}

// reclaim redelivers entries idle longer than PendingIdleTime and moves
// entries delivered MaxRetries times to the dead-letter stream.
func (c *Consumer) reclaim(ctx context.Context, stream string) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  c.cfg.Group,
		Idle:   c.cfg.PendingIdleTime,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Error().Err(err).Str("stream", stream).Msg("pending scan failed")
		}
		return
	}

	for _, p := range pending {
		if int(p.RetryCount) >= c.cfg.MaxRetries {
			c.deadLetter(ctx, stream, p)
			continue
		}

		claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  c.cfg.PendingIdleTime,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			c.log.Error().Err(err).Str("id", p.ID).Msg("claim failed")
			continue
		}
		for _, msg := range claimed {
			c.log.Info().Str("stream", stream).Str("id", msg.ID).Int64("deliveries", p.RetryCount).Msg("redelivering pending entry")
			c.deliver(ctx, stream, msg)
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, stream string, p redis.XPendingExt) {
	log := c.log.With().Str("stream", stream).Str("id", p.ID).Int64("deliveries", p.RetryCount).Logger()

	entries, err := c.client.XRange(ctx, stream, p.ID, p.ID).Result()
	switch {
	case err != nil:
		log.Error().Err(err).Msg("dead-letter read failed")
		return
	case len(entries) == 0:
		// Trimmed away by MAXLEN; nothing left to copy.
		log.Warn().Msg("pending entry no longer in stream")
	default:
		values := deadLetterValues(stream, c.cfg.Group, c.cfg.Consumer, entries[0], time.Now())
		if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: DeadLetterPrefix + stream, Values: values}).Err(); err != nil {
			log.Error().Err(err).Msg("dead-letter write failed")
			return
		}
		log.Warn().Msg("entry moved to dead-letter stream")
	}

	if err := c.ack(ctx, stream, p.ID); err != nil {
		log.Error().Err(err).Msg("ack after dead-letter failed")
	}
}

func deadLetterValues(stream, group, consumer string, entry redis.XMessage, at time.Time) map[string]any {
	values := map[string]any{
		"original_stream": stream,
		"original_id":     entry.ID,
		"failed_at":       at.UTC().Format(time.RFC3339),
		"group":           group,
		"consumer":        consumer,
	}
	for k, v := range entry.Values {
		values["original_"+k] = v
	}
	return values
}
