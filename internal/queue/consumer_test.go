package queue

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	batches []EssayBatch
}

func (p *recordingProcessor) ProcessBatch(_ context.Context, batch EssayBatch) {
	p.batches = append(p.batches, batch)
}

func newTestConsumer(processor BatchProcessor) *Consumer {
	return NewConsumer(nil, "", "", processor, zerolog.New(io.Discard))
}

func TestConsumerHandleDispatchesBatch(t *testing.T) {
	processor := &recordingProcessor{}
	consumer := newTestConsumer(processor)

	batch := EssayBatch{
		AssignmentID: uuid.New(),
		EssayIDs:     []uuid.UUID{uuid.New(), uuid.New()},
	}
	payload, err := json.Marshal(batch)
	require.NoError(t, err)

	consumer.handle(context.Background(), payload)

	require.Len(t, processor.batches, 1)
	require.Equal(t, batch, processor.batches[0])
}

func TestConsumerHandleDropsMalformedMessage(t *testing.T) {
	processor := &recordingProcessor{}
	consumer := newTestConsumer(processor)

	consumer.handle(context.Background(), []byte("{not json"))

	require.Empty(t, processor.batches)
}

func TestConsumerHandleDropsEmptyBatch(t *testing.T) {
	processor := &recordingProcessor{}
	consumer := newTestConsumer(processor)

	payload, err := json.Marshal(EssayBatch{AssignmentID: uuid.New()})
	require.NoError(t, err)

	consumer.handle(context.Background(), payload)

	require.Empty(t, processor.batches)
}

func TestConsumerDefaultsSubjectAndGroup(t *testing.T) {
	consumer := newTestConsumer(&recordingProcessor{})
	require.Equal(t, ExtractSubject, consumer.subject)
	require.Equal(t, ExtractQueueGroup, consumer.group)
}
