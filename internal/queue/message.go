// Package queue carries essay batches between the upload API and the
// extraction worker over NATS.
package queue

import "github.com/google/uuid"

const (
	// ExtractSubject is the NATS subject essay batches are published on.
	ExtractSubject = "instagrader.essays.extract"
	// ExtractQueueGroup ensures a batch message is delivered to a single
	// worker even when several worker processes run.
	ExtractQueueGroup = "instagrader-extraction"
)

// EssayBatch is the unit of asynchronous work: the identifiers of all essays
// created by one upload call, processed together by one worker.
type EssayBatch struct {
	AssignmentID uuid.UUID   `json:"assignment_id"`
	EssayIDs     []uuid.UUID `json:"essay_ids"`
}
