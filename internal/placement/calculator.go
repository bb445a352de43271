package placement

import (
	"errors"
	"math"
	"sort"

	"github.com/hangil-edu/placement-engine/internal/curriculum"
	"github.com/hangil-edu/placement-engine/internal/models"
)

// ErrPlacementNotConfigured indicates a session was never matched to a
// placement rule and has no starting curriculum level. Finalization must
// surface this to the caller instead of silently defaulting.
var ErrPlacementNotConfigured = errors.New("session has no starting curriculum level")

// Outcome is the graded state of one answered question.
type Outcome struct {
	Points  int
	Verdict models.Verdict
}

// Result is the placement produced by finalizing a session.
//
// Score and recommended level are two separate signals: the score is
// diagnostic, while the recommendation is driven entirely by the adjustment
// requests the student made during the test. The score never moves the level.
type Result struct {
	Score              int
	Percentage         float64
	RecommendedLevelID uint
	NeedsManualGrading bool
}

// Calculator aggregates graded answers into a score and replays the
// mid-test adjustment trail to determine the recommended level. It is pure:
// all inputs arrive in memory and the same snapshot always yields the same
// result.
type Calculator struct {
	ladder *curriculum.Ladder
}

// NewCalculator builds a calculator over the given curriculum ladder.
func NewCalculator(ladder *curriculum.Ladder) *Calculator {
	return &Calculator{ladder: ladder}
}

// Finalize computes the placement result for one session snapshot.
//
// The automatic score covers only questions with a final verdict; answers
// still pending manual review are excluded from both numerator and
// denominator and flag the result for manual grading. Unanswered questions
// are final: they contribute zero points but stay in the denominator.
func (c *Calculator) Finalize(startingLevelID *uint, trail []models.LevelAdjustment, outcomes []Outcome) (Result, error) {
	if startingLevelID == nil {
		return Result{}, ErrPlacementNotConfigured
	}

	score := 0
	gradablePoints := 0
	pending := false
	for _, outcome := range outcomes {
		if !outcome.Verdict.Final() {
			pending = true
			continue
		}

		gradablePoints += outcome.Points
		if outcome.Verdict == models.VerdictCorrect {
			score += outcome.Points
		}
	}

	percentage := 0.0
	needsManual := pending
	if gradablePoints > 0 {
		percentage = roundTwoPlaces(float64(score) / float64(gradablePoints) * 100)
	} else {
		// Nothing was auto-gradable: report zero and require a human pass.
		needsManual = true
	}

	ordered := append([]models.LevelAdjustment(nil), trail...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Position < ordered[b].Position
	})

	recommended, err := c.ladder.Walk(*startingLevelID, ordered)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Score:              score,
		Percentage:         percentage,
		RecommendedLevelID: recommended,
		NeedsManualGrading: needsManual,
	}, nil
}

func roundTwoPlaces(value float64) float64 {
	return math.Round(value*100) / 100
}
