package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EssayStatus enumerates the lifecycle states of a submitted essay.
type EssayStatus string

const (
	// EssayStatusPending is the sole initial state: the essay row exists but
	// no extraction attempt has started.
	EssayStatusPending EssayStatus = "pending"
	// EssayStatusProcessing means an extraction attempt has begun. The status
	// stays here after a successful extraction until the grading stage lands.
	EssayStatusProcessing EssayStatus = "processing"
	// EssayStatusGraded means the AI grading stage produced a result.
	EssayStatusGraded EssayStatus = "graded"
	// EssayStatusReviewed means a teacher approved the grading result.
	EssayStatusReviewed EssayStatus = "reviewed"
	// EssayStatusFailed means text extraction failed. Terminal for the
	// extraction stage; only a manual retry leaves it.
	EssayStatusFailed EssayStatus = "failed"
)

// Essay represents one submitted student document within an assignment.
type Essay struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"assignment_id"`
	FileName      string      `gorm:"size:255;not null" json:"file_name"`
	StorageKey    string      `gorm:"size:512;not null" json:"-"`
	ContentType   string      `gorm:"size:128" json:"content_type"`
	SizeBytes     int64       `json:"size_bytes"`
	ExtractedText string      `gorm:"type:text" json:"extracted_text"`
	Status        EssayStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// BeforeCreate assigns a fresh identifier when none was provided.
func (e *Essay) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// CanExtract reports whether an extraction attempt may start for this essay.
func (e Essay) CanExtract() bool {
	return e.Status == EssayStatusPending
}

// CanRetry reports whether a manual re-extraction is allowed.
func (e Essay) CanRetry() bool {
	return e.Status == EssayStatusFailed
}
