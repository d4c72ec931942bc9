package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/nathanfredericks/instagrader/internal/archive"
	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/observability"
	"github.com/nathanfredericks/instagrader/internal/queue"
	"github.com/nathanfredericks/instagrader/internal/repository"
)

// UploadValidationError rejects an entire upload request at classification
// time, before any essay rows or stored objects exist. Reason is a short
// label for metrics; Message is surfaced verbatim to the caller.
type UploadValidationError struct {
	Reason  string
	Message string
}

func (e *UploadValidationError) Error() string {
	return e.Message
}

// BlobStorage abstracts the object store holding original essay binaries.
type BlobStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// BatchDispatcher enqueues a batch of essays for asynchronous extraction.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, batch queue.EssayBatch) error
}

// UploadService turns uploaded files and archives into pending essay records
// and dispatches them for extraction.
type UploadService interface {
	Upload(ctx context.Context, userID uint, assignmentID uuid.UUID, files []*multipart.FileHeader) ([]models.Essay, error)
}

type uploadService struct {
	essays      repository.EssayRepository
	assignments repository.AssignmentRepository
	storage     BlobStorage
	dispatcher  BatchDispatcher
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(essayRepo repository.EssayRepository, assignmentRepo repository.AssignmentRepository, storage BlobStorage, dispatcher BatchDispatcher, logger zerolog.Logger) UploadService {
	return &uploadService{
		essays:      essayRepo,
		assignments: assignmentRepo,
		storage:     storage,
		dispatcher:  dispatcher,
		logger:      logger.With().Str("component", "upload_service").Logger(),
		tracer:      otel.Tracer("github.com/nathanfredericks/instagrader/internal/service/upload"),
	}
}

// essayDraft is one accepted upload item before persistence.
type essayDraft struct {
	fileName    string
	data        []byte
	contentType string
}

// Upload classifies every submitted item, creates one pending essay per
// accepted document and dispatches the whole set as a single extraction
// batch. Rejection of any one item aborts the entire call before anything
// is persisted.
func (s *uploadService) Upload(ctx context.Context, userID uint, assignmentID uuid.UUID, files []*multipart.FileHeader) ([]models.Essay, error) {
	ctx, span := s.tracer.Start(ctx, "essays.upload")
	defer span.End()

	span.SetAttributes(
		attribute.String("assignment.id", assignmentID.String()),
		attribute.Int("upload.items", len(files)),
	)

	assignment, err := s.assignments.GetForUser(ctx, assignmentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	drafts, err := s.classify(files)
	if err != nil {
		var vErr *UploadValidationError
		if errors.As(err, &vErr) {
			observability.UploadsRejected().WithLabelValues(vErr.Reason).Inc()
			span.SetStatus(codes.Error, "classification rejected")
		}
		span.RecordError(err)
		return nil, err
	}

	essays := make([]*models.Essay, 0, len(drafts))
	for _, draft := range drafts {
		essay := &models.Essay{
			ID:           uuid.New(),
			AssignmentID: assignment.ID,
			FileName:     draft.fileName,
			ContentType:  draft.contentType,
			SizeBytes:    int64(len(draft.data)),
			Status:       models.EssayStatusPending,
		}
		essay.StorageKey = fmt.Sprintf("assignments/%s/%s/%s", assignment.ID, essay.ID, draft.fileName)

		if err := s.storage.Upload(ctx, essay.StorageKey, bytes.NewReader(draft.data), essay.SizeBytes, draft.contentType); err != nil {
			s.cleanupObjects(ctx, essays)
			span.RecordError(err)
			span.SetStatus(codes.Error, "storage failed")
			return nil, fmt.Errorf("store essay %s: %w", draft.fileName, err)
		}

		essays = append(essays, essay)
	}

	if err := s.essays.CreateBatch(ctx, essays); err != nil {
		s.cleanupObjects(ctx, essays)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return nil, err
	}

	if assignment.Status == models.AssignmentStatusDraft {
		assignment.Status = models.AssignmentStatusGrading
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			s.logger.Warn().Err(err).
				Str("assignment_id", assignment.ID.String()).
				Msg("failed to move assignment into grading")
		}
	}

	ids := make([]uuid.UUID, 0, len(essays))
	for _, essay := range essays {
		ids = append(ids, essay.ID)
	}

	if err := s.dispatcher.Dispatch(ctx, queue.EssayBatch{AssignmentID: assignment.ID, EssayIDs: ids}); err != nil {
		// The essays stay pending; a manual retry can re-dispatch them.
		s.logger.Error().Err(err).
			Str("assignment_id", assignment.ID.String()).
			Msg("failed to dispatch extraction batch")
	}

	observability.EssaysCreated().Add(float64(len(essays)))
	span.SetStatus(codes.Ok, "created")
	s.logger.Info().
		Str("assignment_id", assignment.ID.String()).
		Int("essays", len(essays)).
		Msg("essays created from upload")

	created := make([]models.Essay, 0, len(essays))
	for _, essay := range essays {
		created = append(created, *essay)
	}

	return created, nil
}

// classify validates every item up front so no durable mutation happens for
// a request that will be rejected.
func (s *uploadService) classify(files []*multipart.FileHeader) ([]essayDraft, error) {
	if len(files) == 0 {
		return nil, &UploadValidationError{Reason: "no_files", Message: "no files provided"}
	}

	var drafts []essayDraft
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		switch {
		case ext == ".zip":
			data, err := readUpload(file)
			if err != nil {
				return nil, err
			}
			entries, err := archive.Expand(data)
			if err != nil {
				return nil, &UploadValidationError{Reason: "corrupt_zip", Message: "invalid or corrupt ZIP file"}
			}
			if len(entries) == 0 {
				return nil, &UploadValidationError{Reason: "empty_zip", Message: "ZIP contains no valid files"}
			}
			for _, entry := range entries {
				drafts = append(drafts, essayDraft{
					fileName:    entry.Name,
					data:        entry.Data,
					contentType: mimetype.Detect(entry.Data).String(),
				})
			}
		case archive.AllowedDocument(file.Filename):
			if file.Size == 0 {
				return nil, &UploadValidationError{Reason: "empty_file", Message: "empty file"}
			}
			data, err := readUpload(file)
			if err != nil {
				return nil, err
			}
			if len(data) == 0 {
				return nil, &UploadValidationError{Reason: "empty_file", Message: "empty file"}
			}
			drafts = append(drafts, essayDraft{
				fileName:    file.Filename,
				data:        data,
				contentType: mimetype.Detect(data).String(),
			})
		default:
			return nil, &UploadValidationError{Reason: "unsupported_type", Message: fmt.Sprintf("unsupported file type: %s", ext)}
		}
	}

	return drafts, nil
}

// cleanupObjects removes objects uploaded before a failed persistence step.
// Best effort: a leftover object without a row is harmless.
func (s *uploadService) cleanupObjects(ctx context.Context, essays []*models.Essay) {
	for _, essay := range essays {
		if err := s.storage.Delete(ctx, essay.StorageKey); err != nil {
			s.logger.Warn().Err(err).Str("key", essay.StorageKey).Msg("failed to clean up stored object")
		}
	}
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", file.Filename, err)
	}
	defer handle.Close()

	data, err := io.ReadAll(handle)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", file.Filename, err)
	}

	return data, nil
}
