package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hangil-edu/placement-engine/internal/models"
)

func TestPlacementRuleRepositoryFindFor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlacementRuleRepository(db)

	foundation := models.CurriculumLevel{Program: "Foundation", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 1, SubprogramRank: 1}
	intermediate := models.CurriculumLevel{Program: "Intermediate", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 2, SubprogramRank: 1}
	require.NoError(t, db.Create(&foundation).Error)
	require.NoError(t, db.Create(&intermediate).Error)

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.PlacementRule{SchoolGrade: 5, RankMin: 1, RankMax: 10, LevelID: intermediate.ID}))
	require.NoError(t, repo.Create(ctx, &models.PlacementRule{SchoolGrade: 5, RankMin: 11, RankMax: 30, LevelID: foundation.ID}))

	rule, err := repo.FindFor(ctx, 5, 7)
	require.NoError(t, err)
	require.Equal(t, intermediate.ID, rule.LevelID)
	require.Equal(t, "Intermediate", rule.Level.Program)

	rule, err = repo.FindFor(ctx, 5, 11)
	require.NoError(t, err)
	require.Equal(t, foundation.ID, rule.LevelID)

	// Band boundaries are inclusive on both ends.
	rule, err = repo.FindFor(ctx, 5, 10)
	require.NoError(t, err)
	require.Equal(t, intermediate.ID, rule.LevelID)

	_, err = repo.FindFor(ctx, 6, 7)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLevelRepositoryListOrdersByRank(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLevelRepository(db)

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.CurriculumLevel{Program: "Advanced", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 3, SubprogramRank: 1}))
	require.NoError(t, repo.Create(ctx, &models.CurriculumLevel{Program: "Foundation", Subprogram: "Track A", LevelNumber: 2, ProgramRank: 1, SubprogramRank: 1}))
	require.NoError(t, repo.Create(ctx, &models.CurriculumLevel{Program: "Foundation", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 1, SubprogramRank: 1}))

	levels, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	require.Equal(t, "Foundation", levels[0].Program)
	require.Equal(t, 1, levels[0].LevelNumber)
	require.Equal(t, 2, levels[1].LevelNumber)
	require.Equal(t, "Advanced", levels[2].Program)
}
