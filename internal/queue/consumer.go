package queue

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// BatchProcessor runs the extraction pipeline for one essay batch. It never
// returns an error: per-essay failures are isolated inside the batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, batch EssayBatch)
}

// Consumer receives essay batches from NATS and hands them to the processor.
// Worker processes share a queue group so each batch is handled once.
type Consumer struct {
	conn      *nats.Conn
	subject   string
	group     string
	processor BatchProcessor
	logger    zerolog.Logger
}

// NewConsumer constructs a batch consumer.
func NewConsumer(conn *nats.Conn, subject, group string, processor BatchProcessor, logger zerolog.Logger) *Consumer {
	if subject == "" {
		subject = ExtractSubject
	}
	if group == "" {
		group = ExtractQueueGroup
	}

	return &Consumer{
		conn:      conn,
		subject:   subject,
		group:     group,
		processor: processor,
		logger:    logger.With().Str("component", "queue_consumer").Logger(),
	}
}

// Start subscribes to the extraction subject and processes batches until the
// context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	sub, err := c.conn.QueueSubscribe(c.subject, c.group, func(msg *nats.Msg) {
		c.handle(ctx, msg.Data)
	})
	if err != nil {
		return err
	}

	c.logger.Info().Str("subject", c.subject).Str("group", c.group).Msg("listening for essay batches")

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to drain extraction subscription")
		}
	}()

	return nil
}

func (c *Consumer) handle(ctx context.Context, data []byte) {
	var batch EssayBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		c.logger.Warn().Err(err).Msg("dropping malformed batch message")
		return
	}
	if len(batch.EssayIDs) == 0 {
		c.logger.Warn().Str("assignment_id", batch.AssignmentID.String()).Msg("dropping empty batch message")
		return
	}

	c.processor.ProcessBatch(ctx, batch)
}
