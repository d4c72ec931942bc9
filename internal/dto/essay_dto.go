package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/nathanfredericks/instagrader/internal/models"
)

// EssayResponse is returned for essay detail views and includes the
// extracted text.
type EssayResponse struct {
	ID            uuid.UUID          `json:"id"`
	AssignmentID  uuid.UUID          `json:"assignment_id"`
	FileName      string             `json:"file_name"`
	ContentType   string             `json:"content_type"`
	SizeBytes     int64              `json:"size_bytes"`
	ExtractedText string             `json:"extracted_text"`
	Status        models.EssayStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// EssayListResponse summarises an essay for list payloads; the extracted
// text is deliberately omitted.
type EssayListResponse struct {
	ID        uuid.UUID          `json:"id"`
	FileName  string             `json:"file_name"`
	Status    models.EssayStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewEssayResponse maps an essay model to its detail representation.
func NewEssayResponse(essay models.Essay) EssayResponse {
	return EssayResponse{
		ID:            essay.ID,
		AssignmentID:  essay.AssignmentID,
		FileName:      essay.FileName,
		ContentType:   essay.ContentType,
		SizeBytes:     essay.SizeBytes,
		ExtractedText: essay.ExtractedText,
		Status:        essay.Status,
		CreatedAt:     essay.CreatedAt,
		UpdatedAt:     essay.UpdatedAt,
	}
}

// NewEssayListResponse maps an essay model to its list representation.
func NewEssayListResponse(essay models.Essay) EssayListResponse {
	return EssayListResponse{
		ID:        essay.ID,
		FileName:  essay.FileName,
		Status:    essay.Status,
		CreatedAt: essay.CreatedAt,
	}
}

// NewEssayListResponseSlice maps a slice of essays to list representations.
func NewEssayListResponseSlice(essays []models.Essay) []EssayListResponse {
	responses := make([]EssayListResponse, 0, len(essays))
	for _, essay := range essays {
		responses = append(responses, NewEssayListResponse(essay))
	}
	return responses
}
