package curriculum

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hangil-edu/placement-engine/internal/models"
)

func testLevels() []models.CurriculumLevel {
	return []models.CurriculumLevel{
		{ID: 30, Program: "Advanced", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 3, SubprogramRank: 1},
		{ID: 10, Program: "Foundation", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 1, SubprogramRank: 1},
		{ID: 12, Program: "Foundation", Subprogram: "Track B", LevelNumber: 1, ProgramRank: 1, SubprogramRank: 2},
		{ID: 11, Program: "Foundation", Subprogram: "Track A", LevelNumber: 2, ProgramRank: 1, SubprogramRank: 1},
		{ID: 20, Program: "Intermediate", Subprogram: "Track A", LevelNumber: 1, ProgramRank: 2, SubprogramRank: 1},
	}
}

func TestNewLadderOrdersByRank(t *testing.T) {
	ladder, err := NewLadder(testLevels())
	require.NoError(t, err)

	var ids []uint
	for _, level := range ladder.Levels() {
		ids = append(ids, level.ID)
	}
	require.Equal(t, []uint{10, 11, 12, 20, 30}, ids)
}

func TestNewLadderRejectsEmptyAndDuplicates(t *testing.T) {
	_, err := NewLadder(nil)
	require.ErrorIs(t, err, ErrEmptyLadder)

	_, err = NewLadder([]models.CurriculumLevel{{ID: 1}, {ID: 1}})
	require.Error(t, err)
}

func TestLadderStepAndClamp(t *testing.T) {
	ladder, err := NewLadder(testLevels())
	require.NoError(t, err)

	next, err := ladder.Up(11)
	require.NoError(t, err)
	require.Equal(t, uint(12), next)

	next, err = ladder.Down(20)
	require.NoError(t, err)
	require.Equal(t, uint(12), next)

	// Stepping past either end keeps the session at the boundary level.
	next, err = ladder.Up(30)
	require.NoError(t, err)
	require.Equal(t, uint(30), next)

	next, err = ladder.Down(10)
	require.NoError(t, err)
	require.Equal(t, uint(10), next)

	_, err = ladder.Up(99)
	require.ErrorIs(t, err, ErrUnknownLevel)
}

func TestLadderWalkClampsRepeatedUps(t *testing.T) {
	ladder, err := NewLadder(testLevels())
	require.NoError(t, err)

	trail := []models.LevelAdjustment{
		{Direction: models.AdjustmentUp, Position: 1},
		{Direction: models.AdjustmentUp, Position: 2},
		{Direction: models.AdjustmentUp, Position: 3},
	}

	// Three ups from the top level still land on the top level.
	result, err := ladder.Walk(30, trail)
	require.NoError(t, err)
	require.Equal(t, uint(30), result)

	result, err = ladder.Walk(12, trail)
	require.NoError(t, err)
	require.Equal(t, uint(30), result)
}

func TestLadderWalkMixedDirections(t *testing.T) {
	ladder, err := NewLadder(testLevels())
	require.NoError(t, err)

	trail := []models.LevelAdjustment{
		{Direction: models.AdjustmentUp, Position: 1},
		{Direction: models.AdjustmentUp, Position: 2},
		{Direction: models.AdjustmentDown, Position: 3},
	}

	result, err := ladder.Walk(10, trail)
	require.NoError(t, err)
	require.Equal(t, uint(11), result)
}

func TestLadderWalkUnknownStart(t *testing.T) {
	ladder, err := NewLadder(testLevels())
	require.NoError(t, err)

	_, err = ladder.Walk(99, nil)
	require.ErrorIs(t, err, ErrUnknownLevel)
}
