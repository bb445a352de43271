package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// PlacementRuleRepository defines data operations for grade+rank placement
// rules.
type PlacementRuleRepository interface {
	FindFor(ctx context.Context, schoolGrade, classRank int) (models.PlacementRule, error)
	Create(ctx context.Context, rule *models.PlacementRule) error
}

type placementRuleRepository struct {
	db *gorm.DB
}

// NewPlacementRuleRepository instantiates the repository.
func NewPlacementRuleRepository(db *gorm.DB) PlacementRuleRepository {
	return &placementRuleRepository{db: db}
}

func (r *placementRuleRepository) FindFor(ctx context.Context, schoolGrade, classRank int) (models.PlacementRule, error) {
	var rule models.PlacementRule
	if err := r.db.WithContext(ctx).
		Preload("Level").
		Where("school_grade = ?", schoolGrade).
		Where("rank_min <= ? AND rank_max >= ?", classRank, classRank).
		Order("rank_min ASC").
		First(&rule).Error; err != nil {
		return models.PlacementRule{}, err
	}

	return rule, nil
}

func (r *placementRuleRepository) Create(ctx context.Context, rule *models.PlacementRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}
