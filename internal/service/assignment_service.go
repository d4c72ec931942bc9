package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nathanfredericks/instagrader/internal/dto"
	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/repository"
)

var (
	// ErrAssignmentNotFound covers both missing assignments and assignments
	// owned by another user.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrRubricNotFound covers both missing rubrics and rubrics owned by
	// another user.
	ErrRubricNotFound = errors.New("rubric not found")
)

// AssignmentService manages assignments and derived views over their essays.
type AssignmentService interface {
	List(ctx context.Context, userID uint) ([]repository.AssignmentSummary, error)
	Create(ctx context.Context, userID uint, req dto.AssignmentCreateRequest) (models.Assignment, error)
	Get(ctx context.Context, userID uint, id uuid.UUID) (models.Assignment, error)
	Update(ctx context.Context, userID uint, id uuid.UUID, req dto.AssignmentUpdateRequest) (models.Assignment, error)
	Delete(ctx context.Context, userID uint, id uuid.UUID) error
	ListEssays(ctx context.Context, userID uint, id uuid.UUID) ([]models.Essay, error)
	Progress(ctx context.Context, userID uint, id uuid.UUID) (dto.AssignmentProgress, error)
	ExportCSV(ctx context.Context, userID uint, id uuid.UUID) ([]byte, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	essays      repository.EssayRepository
	rubrics     repository.RubricRepository
	storage     BlobStorage
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewAssignmentService constructs an assignment service. The cache client is
// optional; without it progress queries always hit the database.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, essayRepo repository.EssayRepository, rubricRepo repository.RubricRepository, storage BlobStorage, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		essays:      essayRepo,
		rubrics:     rubricRepo,
		storage:     storage,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, userID uint) ([]repository.AssignmentSummary, error) {
	return s.assignments.List(ctx, userID)
}

func (s *assignmentService) Create(ctx context.Context, userID uint, req dto.AssignmentCreateRequest) (models.Assignment, error) {
	if _, err := s.rubrics.GetForUser(ctx, req.RubricID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrRubricNotFound
		}
		return models.Assignment{}, err
	}

	assignment := models.Assignment{
		UserID:     userID,
		RubricID:   req.RubricID,
		Title:      req.Title,
		Prompt:     req.Prompt,
		SourceText: req.SourceText,
		Status:     models.AssignmentStatusDraft,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID.String()).
		Uint("user_id", userID).
		Msg("assignment created")

	return assignment, nil
}

func (s *assignmentService) Get(ctx context.Context, userID uint, id uuid.UUID) (models.Assignment, error) {
	assignment, err := s.assignments.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *assignmentService) Update(ctx context.Context, userID uint, id uuid.UUID, req dto.AssignmentUpdateRequest) (models.Assignment, error) {
	assignment, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Assignment{}, err
	}

	if req.RubricID != nil {
		if _, err := s.rubrics.GetForUser(ctx, *req.RubricID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Assignment{}, ErrRubricNotFound
			}
			return models.Assignment{}, err
		}
		assignment.RubricID = *req.RubricID
	}
	if req.Title != nil {
		assignment.Title = *req.Title
	}
	if req.Prompt != nil {
		assignment.Prompt = *req.Prompt
	}
	if req.SourceText != nil {
		assignment.SourceText = *req.SourceText
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

// Delete removes the assignment, its essay rows and their stored objects.
// Object removal is best effort and happens after the rows are gone.
func (s *assignmentService) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	assignment, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
		return err
	}

	for _, essay := range assignment.Essays {
		if err := s.storage.Delete(ctx, essay.StorageKey); err != nil {
			s.logger.Warn().Err(err).
				Str("key", essay.StorageKey).
				Msg("failed to remove stored object for deleted assignment")
		}
	}

	s.invalidateProgress(ctx, assignment.ID)
	s.logger.Info().
		Str("assignment_id", assignment.ID.String()).
		Int("essays", len(assignment.Essays)).
		Msg("assignment deleted")

	return nil
}

func (s *assignmentService) ListEssays(ctx context.Context, userID uint, id uuid.UUID) ([]models.Essay, error) {
	assignment, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return s.essays.ListByAssignment(ctx, assignment.ID)
}

// Progress returns per-status essay counts, served from a short-lived cache
// when available. Dashboards poll this endpoint while a batch is extracting,
// so stale counts within the TTL are acceptable.
func (s *assignmentService) Progress(ctx context.Context, userID uint, id uuid.UUID) (dto.AssignmentProgress, error) {
	assignment, err := s.Get(ctx, userID, id)
	if err != nil {
		return dto.AssignmentProgress{}, err
	}

	key := progressCacheKey(assignment.ID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var progress dto.AssignmentProgress
			if err := json.Unmarshal([]byte(cached), &progress); err == nil {
				return progress, nil
			}
		}
	}

	counts, err := s.essays.CountByStatus(ctx, assignment.ID)
	if err != nil {
		return dto.AssignmentProgress{}, err
	}

	progress := dto.AssignmentProgress{
		Pending:    counts[models.EssayStatusPending],
		Processing: counts[models.EssayStatusProcessing],
		Graded:     counts[models.EssayStatusGraded],
		Reviewed:   counts[models.EssayStatusReviewed],
		Failed:     counts[models.EssayStatusFailed],
	}
	progress.Total = progress.Pending + progress.Processing + progress.Graded + progress.Reviewed + progress.Failed

	if s.cache != nil {
		if payload, err := json.Marshal(progress); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache assignment progress")
			}
		}
	}

	return progress, nil
}

// ExportCSV renders every essay of the assignment as a CSV document with the
// extracted text included.
func (s *assignmentService) ExportCSV(ctx context.Context, userID uint, id uuid.UUID) ([]byte, error) {
	essays, err := s.ListEssays(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"file_name", "status", "size_bytes", "extracted_text"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, essay := range essays {
		record := []string{
			essay.FileName,
			string(essay.Status),
			strconv.FormatInt(essay.SizeBytes, 10),
			essay.ExtractedText,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (s *assignmentService) invalidateProgress(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, progressCacheKey(id)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate progress cache")
	}
}

func progressCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("assignments:%s:progress", id)
}
