package worker

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// JobType represents the type of a job.
type JobType = string

const (
	// JobDomainEvent applies a domain event's reputation, badge and
	// activity side effects.
	JobDomainEvent JobType = "network.event"
)

type Message struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Stream    string          `json:"stream"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Retries   int             `json:"retries"`

	ack func(ctx context.Context) error
}

func NewMessage(jobType JobType, id string, payload []byte) *Message {
	return &Message{
		ID:        id,
		Type:      jobType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// WithAck attaches the stream acknowledgement run after successful
// processing.
func (m *Message) WithAck(ack func(ctx context.Context) error) *Message {
	m.ack = ack
	return m
}

// Ack acknowledges the message at its source. Messages without a source
// acknowledge trivially.
func (m *Message) Ack(ctx context.Context) error {
	if m.ack == nil {
		return nil
	}
	return m.ack(ctx)
}

func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
