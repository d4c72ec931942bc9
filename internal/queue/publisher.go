package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher enqueues essay batches for asynchronous extraction. Publishing is
// fire-and-forget: the HTTP request that created the essays returns without
// waiting for any processing.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewPublisher constructs a batch publisher on the given subject.
func NewPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *Publisher {
	if subject == "" {
		subject = ExtractSubject
	}

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "queue_publisher").Logger(),
	}
}

// Dispatch publishes one message carrying the full batch.
func (p *Publisher) Dispatch(_ context.Context, batch EssayBatch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal essay batch: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish essay batch: %w", err)
	}

	p.logger.Info().
		Str("assignment_id", batch.AssignmentID.String()).
		Int("essays", len(batch.EssayIDs)).
		Msg("essay batch dispatched")

	return nil
}
