package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/queue"
	"github.com/nathanfredericks/instagrader/internal/repository"
)

// ErrEssayNotFound covers both missing essays and essays belonging to
// another user's assignment.
var ErrEssayNotFound = errors.New("essay not found")

// ErrEssayNotRetryable is returned when a retry is requested for an essay
// that has not failed.
var ErrEssayNotRetryable = errors.New("only failed essays can be retried")

// EssayService exposes single-essay operations.
type EssayService interface {
	Get(ctx context.Context, userID uint, id uuid.UUID) (models.Essay, error)
	Delete(ctx context.Context, userID uint, id uuid.UUID) error
	Retry(ctx context.Context, userID uint, id uuid.UUID) (models.Essay, error)
}

type essayService struct {
	essays     repository.EssayRepository
	storage    BlobStorage
	dispatcher BatchDispatcher
	logger     zerolog.Logger
}

// NewEssayService constructs an essay service.
func NewEssayService(essayRepo repository.EssayRepository, storage BlobStorage, dispatcher BatchDispatcher, logger zerolog.Logger) EssayService {
	return &essayService{
		essays:     essayRepo,
		storage:    storage,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "essay_service").Logger(),
	}
}

func (s *essayService) Get(ctx context.Context, userID uint, id uuid.UUID) (models.Essay, error) {
	essay, err := s.essays.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}
		return models.Essay{}, err
	}

	return essay, nil
}

// Delete removes the essay row and its stored object. Object removal is best
// effort so a flaky object store never blocks the delete.
func (s *essayService) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	essay, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.essays.Delete(ctx, essay.ID); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, essay.StorageKey); err != nil {
		s.logger.Warn().Err(err).
			Str("key", essay.StorageKey).
			Msg("failed to remove stored object for deleted essay")
	}

	return nil
}

// Retry resets a failed essay to pending and dispatches it as a single-essay
// batch. Unlike the dispatch after an upload, a failed dispatch here is
// surfaced to the caller: the retry did not happen.
func (s *essayService) Retry(ctx context.Context, userID uint, id uuid.UUID) (models.Essay, error) {
	essay, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Essay{}, err
	}

	if !essay.CanRetry() {
		return models.Essay{}, ErrEssayNotRetryable
	}

	reset, err := s.essays.TransitionStatus(ctx, essay.ID, models.EssayStatusFailed, models.EssayStatusPending)
	if err != nil {
		return models.Essay{}, err
	}
	if !reset {
		return models.Essay{}, ErrEssayNotRetryable
	}

	batch := queue.EssayBatch{AssignmentID: essay.AssignmentID, EssayIDs: []uuid.UUID{essay.ID}}
	if err := s.dispatcher.Dispatch(ctx, batch); err != nil {
		return models.Essay{}, fmt.Errorf("dispatch retry for essay %s: %w", essay.ID, err)
	}

	s.logger.Info().
		Str("essay_id", essay.ID.String()).
		Msg("essay retry dispatched")

	essay.Status = models.EssayStatusPending
	return essay, nil
}
