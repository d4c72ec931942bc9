package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nathanfredericks/instagrader/internal/models"
)

// RubricRepository exposes the read access the assignment flow needs; rubric
// editing lives in a separate subsystem.
type RubricRepository interface {
	GetForUser(ctx context.Context, id uuid.UUID, userID uint) (models.Rubric, error)
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates the repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) GetForUser(ctx context.Context, id uuid.UUID, userID uint) (models.Rubric, error) {
	var rubric models.Rubric
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rubric).Error; err != nil {
		return models.Rubric{}, err
	}

	return rubric, nil
}
