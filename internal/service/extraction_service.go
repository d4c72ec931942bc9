package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/observability"
	"github.com/nathanfredericks/instagrader/internal/queue"
	"github.com/nathanfredericks/instagrader/internal/repository"
)

// TextConverter extracts plain text from a stored essay document.
type TextConverter interface {
	Convert(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// Grader scores an essay after its text has been extracted.
type Grader interface {
	Grade(ctx context.Context, essay models.Essay) error
}

// ExtractionService is the worker-side pipeline: it consumes essay batches,
// extracts the text of each essay and hands successful ones to the grader.
type ExtractionService interface {
	queue.BatchProcessor
	ExtractEssay(ctx context.Context, id uuid.UUID) error
}

type extractionService struct {
	essays    repository.EssayRepository
	storage   BlobStorage
	converter TextConverter
	grader    Grader
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewExtractionService constructs the extraction pipeline.
func NewExtractionService(essayRepo repository.EssayRepository, storage BlobStorage, converter TextConverter, grader Grader, logger zerolog.Logger) ExtractionService {
	return &extractionService{
		essays:    essayRepo,
		storage:   storage,
		converter: converter,
		grader:    grader,
		logger:    logger.With().Str("component", "extraction_service").Logger(),
		tracer:    otel.Tracer("github.com/nathanfredericks/instagrader/internal/service/extraction"),
	}
}

// ProcessBatch walks the batch one essay at a time. A failing essay is marked
// failed and skipped; it never stops the remaining essays in the batch.
func (s *extractionService) ProcessBatch(ctx context.Context, batch queue.EssayBatch) {
	ctx, span := s.tracer.Start(ctx, "essays.process_batch")
	defer span.End()

	span.SetAttributes(
		attribute.String("assignment.id", batch.AssignmentID.String()),
		attribute.Int("batch.size", len(batch.EssayIDs)),
	)
	observability.ExtractionBatches().Inc()

	s.logger.Info().
		Str("assignment_id", batch.AssignmentID.String()).
		Int("essays", len(batch.EssayIDs)).
		Msg("processing extraction batch")

	for _, id := range batch.EssayIDs {
		if err := s.ExtractEssay(ctx, id); err != nil {
			s.logger.Error().Err(err).
				Str("essay_id", id.String()).
				Msg("essay extraction failed")
			continue
		}

		essay, err := s.essays.GetByID(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).
				Str("essay_id", id.String()).
				Msg("failed to reload essay for grading")
			continue
		}

		if err := s.grader.Grade(ctx, essay); err != nil {
			s.logger.Error().Err(err).
				Str("essay_id", id.String()).
				Msg("essay grading failed")
		}
	}
}

// ExtractEssay downloads one essay document, converts it to plain text and
// stores the result. The essay is claimed with a conditional pending to
// processing transition so a redelivered batch cannot process it twice. On
// any conversion or storage error the essay is marked failed; on success it
// stays in processing until grading advances it.
func (s *extractionService) ExtractEssay(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "essays.extract")
	defer span.End()
	span.SetAttributes(attribute.String("essay.id", id.String()))

	essay, err := s.essays.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load essay %s: %w", id, err)
	}

	claimed, err := s.essays.TransitionStatus(ctx, id, models.EssayStatusPending, models.EssayStatusProcessing)
	if err != nil {
		return fmt.Errorf("claim essay %s: %w", id, err)
	}
	if !claimed {
		s.logger.Warn().
			Str("essay_id", id.String()).
			Str("status", string(essay.Status)).
			Msg("essay not pending, skipping extraction")
		return nil
	}

	start := time.Now()
	text, err := s.extractText(ctx, essay)
	if err != nil {
		observability.ExtractionFailures().Inc()
		if setErr := s.essays.SetStatus(ctx, id, models.EssayStatusFailed); setErr != nil {
			s.logger.Error().Err(setErr).
				Str("essay_id", id.String()).
				Msg("failed to mark essay as failed")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return err
	}

	if err := s.essays.UpdateExtractedText(ctx, id, text); err != nil {
		observability.ExtractionFailures().Inc()
		if setErr := s.essays.SetStatus(ctx, id, models.EssayStatusFailed); setErr != nil {
			s.logger.Error().Err(setErr).
				Str("essay_id", id.String()).
				Msg("failed to mark essay as failed")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return fmt.Errorf("store extracted text for essay %s: %w", id, err)
	}

	observability.ExtractionLatency().Observe(time.Since(start).Seconds())
	span.SetStatus(codes.Ok, "extracted")
	s.logger.Info().
		Str("essay_id", id.String()).
		Str("file_name", essay.FileName).
		Int("characters", len(text)).
		Msg("essay text extracted")

	return nil
}

func (s *extractionService) extractText(ctx context.Context, essay models.Essay) (string, error) {
	object, err := s.storage.Download(ctx, essay.StorageKey)
	if err != nil {
		return "", fmt.Errorf("download essay %s: %w", essay.ID, err)
	}
	defer object.Close()

	text, err := s.converter.Convert(ctx, object, essay.FileName)
	if err != nil {
		return "", fmt.Errorf("convert essay %s: %w", essay.ID, err)
	}

	return text, nil
}

type noopGrader struct {
	logger zerolog.Logger
}

// NewNoopGrader returns a grader that only records the request. Automated
// scoring is handled by a separate system.
func NewNoopGrader(logger zerolog.Logger) Grader {
	return &noopGrader{logger: logger.With().Str("component", "grader").Logger()}
}

func (g *noopGrader) Grade(_ context.Context, essay models.Essay) error {
	g.logger.Info().
		Str("essay_id", essay.ID.String()).
		Msg("grading requested but not yet implemented")
	return nil
}
