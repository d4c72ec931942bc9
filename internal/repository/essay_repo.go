package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanfredericks/instagrader/internal/models"
)

// EssayRepository defines data operations for essays.
type EssayRepository interface {
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Essay, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Essay, error)
	GetForUser(ctx context.Context, id uuid.UUID, userID uint) (models.Essay, error)
	CreateBatch(ctx context.Context, essays []*models.Essay) error
	UpdateExtractedText(ctx context.Context, id uuid.UUID, text string) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.EssayStatus) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.EssayStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, assignmentID uuid.UUID) (map[models.EssayStatus]int64, error)
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository instantiates the repository.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.Essay, error) {
	var essays []models.Essay
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("file_name ASC").
		Find(&essays).Error; err != nil {
		return nil, err
	}

	return essays, nil
}

func (r *essayRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Essay, error) {
	var essay models.Essay
	if err := r.db.WithContext(ctx).First(&essay, "id = ?", id).Error; err != nil {
		return models.Essay{}, err
	}

	return essay, nil
}

func (r *essayRepository) GetForUser(ctx context.Context, id uuid.UUID, userID uint) (models.Essay, error) {
	var essay models.Essay
	if err := r.db.WithContext(ctx).
		Joins("JOIN assignments ON assignments.id = essays.assignment_id").
		Where("essays.id = ? AND assignments.user_id = ?", id, userID).
		First(&essay).Error; err != nil {
		return models.Essay{}, err
	}

	return essay, nil
}

// CreateBatch inserts all rows in a single transaction so a failing upload
// never leaves a partial batch behind.
func (r *essayRepository) CreateBatch(ctx context.Context, essays []*models.Essay) error {
	if len(essays) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(essays).Error
}

func (r *essayRepository) UpdateExtractedText(ctx context.Context, id uuid.UUID, text string) error {
	return r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Where("id = ?", id).
		Update("extracted_text", text).Error
}

// TransitionStatus moves an essay between states only when it currently sits
// in the expected source state. Returns false when another attempt already
// moved it, which guards against double-processing the same essay.
func (r *essayRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.EssayStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *essayRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.EssayStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *essayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Essay{}, "id = ?", id).Error
}

func (r *essayRepository) CountByStatus(ctx context.Context, assignmentID uuid.UUID) (map[models.EssayStatus]int64, error) {
	type statusCount struct {
		Status models.EssayStatus
		Count  int64
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Select("status, count(*) as count").
		Where("assignment_id = ?", assignmentID).
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.EssayStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
