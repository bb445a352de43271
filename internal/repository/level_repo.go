package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// LevelRepository defines data operations for curriculum levels.
type LevelRepository interface {
	List(ctx context.Context) ([]models.CurriculumLevel, error)
	Create(ctx context.Context, level *models.CurriculumLevel) error
}

type levelRepository struct {
	db *gorm.DB
}

// NewLevelRepository instantiates the repository.
func NewLevelRepository(db *gorm.DB) LevelRepository {
	return &levelRepository{db: db}
}

func (r *levelRepository) List(ctx context.Context) ([]models.CurriculumLevel, error) {
	var levels []models.CurriculumLevel
	if err := r.db.WithContext(ctx).
		Order("program_rank ASC, subprogram_rank ASC, level_number ASC").
		Find(&levels).Error; err != nil {
		return nil, err
	}

	return levels, nil
}

func (r *levelRepository) Create(ctx context.Context, level *models.CurriculumLevel) error {
	return r.db.WithContext(ctx).Create(level).Error
}
