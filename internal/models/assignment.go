package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentStatus enumerates the grading workflow states of an assignment.
type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "draft"
	AssignmentStatusGrading   AssignmentStatus = "grading"
	AssignmentStatusReview    AssignmentStatus = "review"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// Assignment is a teacher-defined grading task binding a rubric, a prompt and
// a set of uploaded essays.
type Assignment struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index" json:"user_id"`
	RubricID   uuid.UUID        `gorm:"type:uuid;not null" json:"rubric_id"`
	Title      string           `gorm:"size:255;not null" json:"title"`
	Prompt     string           `gorm:"type:text" json:"prompt"`
	SourceText string           `gorm:"type:text" json:"source_text"`
	Status     AssignmentStatus `gorm:"size:20;not null;default:draft" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Essays     []Essay          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"essays,omitempty"`
}

// BeforeCreate assigns a fresh identifier when none was provided.
func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
