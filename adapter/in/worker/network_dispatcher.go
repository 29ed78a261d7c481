package worker

import (
	"context"
	"fmt"

	"network_server/adapter/out/messaging"
	"network_server/core/port/out"
	"network_server/pkg/logger"
)

type Handler struct {
	eventProcessor *EventProcessor
}

func NewHandler(eventProcessor *EventProcessor) *Handler {
	return &Handler{eventProcessor: eventProcessor}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	logger.Debug("Processing message: %s", msg.Type)

	switch msg.Type {
	case JobDomainEvent:
		return h.eventProcessor.Process(ctx, msg)
	default:
		logger.Warn("Unknown job type: %s", msg.Type)
		return nil
	}
}

// Submitter accepts messages for asynchronous processing.
type Submitter interface {
	Submit(msg *Message) bool
}

// StreamRouter turns stream deliveries into pool jobs. The pool acks each
// delivery after processing.
type StreamRouter struct {
	pool   Submitter
	routes map[string]JobType
}

func NewStreamRouter(pool Submitter) *StreamRouter {
	return &StreamRouter{
		pool: pool,
		routes: map[string]JobType{
			out.StreamDomainEvents: JobDomainEvent,
		},
	}
}

// Streams lists the streams the router has jobs for.
func (r *StreamRouter) Streams() []string {
	streams := make([]string, 0, len(r.routes))
	for s := range r.routes {
		streams = append(streams, s)
	}
	return streams
}

func (r *StreamRouter) Handle(ctx context.Context, d messaging.Delivery) error {
	jobType, ok := r.routes[d.Stream]
	if !ok {
		return fmt.Errorf("no job type for stream %s", d.Stream)
	}
	msg := NewMessage(jobType, d.ID, d.Data)
	msg.Stream = d.Stream
	msg.WithAck(d.Ack)
	if !r.pool.Submit(msg) {
		return fmt.Errorf("worker pool rejected %s", d.ID)
	}
	return nil
}
