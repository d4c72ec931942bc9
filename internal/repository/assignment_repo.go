package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanfredericks/instagrader/internal/models"
)

// AssignmentSummary pairs an assignment with its essay count for list views.
type AssignmentSummary struct {
	models.Assignment
	EssayCount int64 `gorm:"column:essay_count"`
}

// AssignmentRepository defines data operations for assignments. Every query
// is scoped to the owning user so foreign resources are indistinguishable
// from missing ones.
type AssignmentRepository interface {
	List(ctx context.Context, userID uint) ([]AssignmentSummary, error)
	GetForUser(ctx context.Context, id uuid.UUID, userID uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, userID uint) ([]AssignmentSummary, error) {
	var summaries []AssignmentSummary
	if err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select("assignments.*, count(essays.id) as essay_count").
		Joins("LEFT JOIN essays ON essays.assignment_id = assignments.id").
		Where("assignments.user_id = ?", userID).
		Group("assignments.id").
		Order("assignments.created_at DESC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *assignmentRepository) GetForUser(ctx context.Context, id uuid.UUID, userID uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Essays", func(db *gorm.DB) *gorm.DB {
			return db.Order("essays.file_name ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&assignment).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// Delete removes the assignment and its essays in one transaction rather
// than relying on database-level cascade configuration.
func (r *assignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Essay{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Assignment{}, "id = ?", id).Error
	})
}
