package curriculum

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// ErrUnknownLevel indicates a level ID that is not part of the ladder.
var ErrUnknownLevel = errors.New("unknown curriculum level")

// ErrEmptyLadder indicates a ladder was built from zero levels.
var ErrEmptyLadder = errors.New("curriculum ladder is empty")

// Ladder is the ordered curriculum hierarchy placement recommendations walk.
// Levels are ranked by program, then subprogram, then level number.
type Ladder struct {
	levels   []models.CurriculumLevel
	position map[uint]int
}

// NewLadder builds a ladder from the given levels. The input slice is not
// mutated.
func NewLadder(levels []models.CurriculumLevel) (*Ladder, error) {
	if len(levels) == 0 {
		return nil, ErrEmptyLadder
	}

	ordered := append([]models.CurriculumLevel(nil), levels...)
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].ProgramRank != ordered[b].ProgramRank {
			return ordered[a].ProgramRank < ordered[b].ProgramRank
		}
		if ordered[a].SubprogramRank != ordered[b].SubprogramRank {
			return ordered[a].SubprogramRank < ordered[b].SubprogramRank
		}
		return ordered[a].LevelNumber < ordered[b].LevelNumber
	})

	position := make(map[uint]int, len(ordered))
	for i, level := range ordered {
		if _, exists := position[level.ID]; exists {
			return nil, fmt.Errorf("duplicate curriculum level id %d", level.ID)
		}
		position[level.ID] = i
	}

	return &Ladder{levels: ordered, position: position}, nil
}

// Levels returns the levels in ladder order.
func (l *Ladder) Levels() []models.CurriculumLevel {
	return append([]models.CurriculumLevel(nil), l.levels...)
}

// Contains reports whether the ladder knows the given level.
func (l *Ladder) Contains(levelID uint) bool {
	_, ok := l.position[levelID]
	return ok
}

// Level returns the level with the given ID.
func (l *Ladder) Level(levelID uint) (models.CurriculumLevel, error) {
	index, ok := l.position[levelID]
	if !ok {
		return models.CurriculumLevel{}, fmt.Errorf("%w: id %d", ErrUnknownLevel, levelID)
	}
	return l.levels[index], nil
}

// Up moves one step toward the hardest level. Stepping past the top is a
// no-op, not an error: the request is accepted but produces no change.
func (l *Ladder) Up(levelID uint) (uint, error) {
	return l.step(levelID, 1)
}

// Down moves one step toward the easiest level, clamping at the bottom.
func (l *Ladder) Down(levelID uint) (uint, error) {
	return l.step(levelID, -1)
}

// Walk replays an ordered adjustment trail from the given starting level and
// returns the resulting level ID.
func (l *Ladder) Walk(startID uint, trail []models.LevelAdjustment) (uint, error) {
	current := startID
	if _, ok := l.position[current]; !ok {
		return 0, fmt.Errorf("%w: id %d", ErrUnknownLevel, current)
	}

	for _, adjustment := range trail {
		var err error
		switch adjustment.Direction {
		case models.AdjustmentUp:
			current, err = l.Up(current)
		case models.AdjustmentDown:
			current, err = l.Down(current)
		default:
			err = fmt.Errorf("unknown adjustment direction %q", adjustment.Direction)
		}
		if err != nil {
			return 0, err
		}
	}

	return current, nil
}

func (l *Ladder) step(levelID uint, delta int) (uint, error) {
	index, ok := l.position[levelID]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrUnknownLevel, levelID)
	}

	next := index + delta
	if next < 0 || next >= len(l.levels) {
		return levelID, nil
	}

	return l.levels[next].ID, nil
}
