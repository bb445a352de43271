package models

import "time"

// SessionStatus enumerates the lifecycle states of a placement session.
type SessionStatus string

const (
	// SessionStatusInProgress means the student is still taking the test.
	SessionStatusInProgress SessionStatus = "in_progress"
	// SessionStatusCompleted means the session was finalized and its
	// placement result written.
	SessionStatusCompleted SessionStatus = "completed"
)

// AdjustmentDirection is the direction of a mid-test level change request.
type AdjustmentDirection string

const (
	// AdjustmentUp asks for a harder exam level.
	AdjustmentUp AdjustmentDirection = "up"
	// AdjustmentDown asks for an easier exam level.
	AdjustmentDown AdjustmentDirection = "down"
)

// LevelAdjustment records one mid-test request to move the candidate level.
// Position is the 1-based sequence of the event within the session's trail.
type LevelAdjustment struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	SessionID uint                `gorm:"not null;index" json:"session_id"`
	Direction AdjustmentDirection `gorm:"size:8;not null" json:"direction"`
	Position  int                 `gorm:"not null" json:"position"`
	CreatedAt time.Time           `json:"created_at"`
}

// Session is one student's attempt at a placement exam.
//
// StartingLevelID is nil when no placement rule matched the student at start;
// finalizing such a session fails rather than defaulting. The final score,
// percentage and recommended level are written exactly once, at completion.
type Session struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	Ref                string            `gorm:"size:36;uniqueIndex;not null" json:"ref"`
	ExamID             uint              `gorm:"not null;index" json:"exam_id"`
	StudentID          uint              `gorm:"not null;index" json:"student_id"`
	Status             SessionStatus     `gorm:"size:16;not null" json:"status"`
	StartingLevelID    *uint             `json:"starting_level_id"`
	StartingLevel      *CurriculumLevel  `gorm:"foreignKey:StartingLevelID" json:"starting_level,omitempty"`
	FinalScore         *int              `json:"final_score"`
	FinalPercentage    *float64          `json:"final_percentage"`
	RecommendedLevelID *uint             `json:"recommended_level_id"`
	NeedsManualGrading bool              `gorm:"not null;default:false" json:"needs_manual_grading"`
	Adjustments        []LevelAdjustment `json:"adjustments"`
	Answers            []SubmittedAnswer `json:"answers"`
	StartedAt          time.Time         `gorm:"not null" json:"started_at"`
	CompletedAt        *time.Time        `json:"completed_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// IsCompleted reports whether the session has been finalized.
func (s Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// PendingReviewCount counts answers still awaiting a human verdict.
func (s Session) PendingReviewCount() int {
	count := 0
	for _, answer := range s.Answers {
		if answer.Verdict == VerdictPendingReview {
			count++
		}
	}
	return count
}
