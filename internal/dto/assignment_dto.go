package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/repository"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	Title      string    `json:"title" validate:"required,max=255"`
	Prompt     string    `json:"prompt" validate:"required"`
	SourceText string    `json:"source_text"`
	RubricID   uuid.UUID `json:"rubric_id" validate:"required"`
}

// AssignmentUpdateRequest describes a partial assignment update.
type AssignmentUpdateRequest struct {
	Title      *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Prompt     *string    `json:"prompt" validate:"omitempty,min=1"`
	SourceText *string    `json:"source_text"`
	RubricID   *uuid.UUID `json:"rubric_id"`
}

// AssignmentResponse is returned for assignment detail views.
type AssignmentResponse struct {
	ID         uuid.UUID               `json:"id"`
	RubricID   uuid.UUID               `json:"rubric_id"`
	Title      string                  `json:"title"`
	Prompt     string                  `json:"prompt"`
	SourceText string                  `json:"source_text"`
	Status     models.AssignmentStatus `json:"status"`
	Essays     []EssayListResponse     `json:"essays"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// AssignmentListResponse summarises an assignment for list payloads.
type AssignmentListResponse struct {
	ID         uuid.UUID               `json:"id"`
	Title      string                  `json:"title"`
	Status     models.AssignmentStatus `json:"status"`
	EssayCount int64                   `json:"essay_count"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// AssignmentProgress reports per-status essay counts for one assignment.
type AssignmentProgress struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Graded     int64 `json:"graded"`
	Reviewed   int64 `json:"reviewed"`
	Failed     int64 `json:"failed"`
}

// NewAssignmentResponse maps an assignment model to its detail representation.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         assignment.ID,
		RubricID:   assignment.RubricID,
		Title:      assignment.Title,
		Prompt:     assignment.Prompt,
		SourceText: assignment.SourceText,
		Status:     assignment.Status,
		Essays:     NewEssayListResponseSlice(assignment.Essays),
		CreatedAt:  assignment.CreatedAt,
		UpdatedAt:  assignment.UpdatedAt,
	}
}

// NewAssignmentListResponse maps an assignment summary to its list representation.
func NewAssignmentListResponse(summary repository.AssignmentSummary) AssignmentListResponse {
	return AssignmentListResponse{
		ID:         summary.ID,
		Title:      summary.Title,
		Status:     summary.Status,
		EssayCount: summary.EssayCount,
		CreatedAt:  summary.CreatedAt,
		UpdatedAt:  summary.UpdatedAt,
	}
}

// NewAssignmentListResponseSlice maps assignment summaries to list representations.
func NewAssignmentListResponseSlice(summaries []repository.AssignmentSummary) []AssignmentListResponse {
	responses := make([]AssignmentListResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, NewAssignmentListResponse(summary))
	}
	return responses
}
