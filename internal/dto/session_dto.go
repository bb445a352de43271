package dto

import (
	"time"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// SessionStartRequest opens a placement session for a student.
type SessionStartRequest struct {
	ExamID      uint `json:"exam_id" validate:"required,gt=0"`
	StudentID   uint `json:"student_id" validate:"required,gt=0"`
	SchoolGrade int  `json:"school_grade" validate:"required,gte=1,lte=12"`
	ClassRank   int  `json:"class_rank" validate:"required,gte=1"`
}

// AnswerPartPayload is one labelled slot of a multi-component submission.
type AnswerPartPayload struct {
	Label string `json:"label" validate:"required,len=1,alpha"`
	Value string `json:"value"`
}

// AnswerSubmitRequest records or replaces a student's answer to one question.
// Value carries single-slot payloads; Parts carries multi-component ones.
type AnswerSubmitRequest struct {
	QuestionID uint                `json:"question_id" validate:"required,gt=0"`
	Value      string              `json:"value"`
	Parts      []AnswerPartPayload `json:"parts" validate:"omitempty,dive"`
}

// AdjustmentRequest asks for a harder or easier exam level mid-test.
type AdjustmentRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// LevelResponse summarizes one curriculum level.
type LevelResponse struct {
	ID          uint   `json:"id"`
	Program     string `json:"program"`
	Subprogram  string `json:"subprogram"`
	LevelNumber int    `json:"level_number"`
}

// AnswerResponse is returned after an answer is recorded and graded.
type AnswerResponse struct {
	ID         uint           `json:"id"`
	SessionID  uint           `json:"session_id"`
	QuestionID uint           `json:"question_id"`
	Verdict    models.Verdict `json:"verdict"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// AdjustmentResponse reports the trail event and the clamped effective level.
type AdjustmentResponse struct {
	Position         int    `json:"position"`
	Direction        string `json:"direction"`
	EffectiveLevelID uint   `json:"effective_level_id"`
}

// SessionResponse is the API view of a placement session.
type SessionResponse struct {
	ID                 uint                 `json:"id"`
	Ref                string               `json:"ref"`
	ExamID             uint                 `json:"exam_id"`
	StudentID          uint                 `json:"student_id"`
	Status             models.SessionStatus `json:"status"`
	StartingLevel      *LevelResponse       `json:"starting_level,omitempty"`
	NeedsManualGrading bool                 `json:"needs_manual_grading"`
	StartedAt          time.Time            `json:"started_at"`
	CompletedAt        *time.Time           `json:"completed_at,omitempty"`
}

// PlacementResultResponse is the outcome of finalizing a session.
type PlacementResultResponse struct {
	SessionRef         string        `json:"session_ref"`
	Score              int           `json:"score"`
	Percentage         float64       `json:"percentage"`
	RecommendedLevel   LevelResponse `json:"recommended_level"`
	NeedsManualGrading bool          `json:"needs_manual_grading"`
}

// NewLevelResponse converts a curriculum level model into a DTO.
func NewLevelResponse(model models.CurriculumLevel) LevelResponse {
	return LevelResponse{
		ID:          model.ID,
		Program:     model.Program,
		Subprogram:  model.Subprogram,
		LevelNumber: model.LevelNumber,
	}
}

// NewSessionResponse converts a session model into a DTO.
func NewSessionResponse(model models.Session) SessionResponse {
	response := SessionResponse{
		ID:                 model.ID,
		Ref:                model.Ref,
		ExamID:             model.ExamID,
		StudentID:          model.StudentID,
		Status:             model.Status,
		NeedsManualGrading: model.NeedsManualGrading,
		StartedAt:          model.StartedAt,
		CompletedAt:        model.CompletedAt,
	}

	if model.StartingLevel != nil {
		level := NewLevelResponse(*model.StartingLevel)
		response.StartingLevel = &level
	}

	return response
}

// NewAnswerResponse converts a submitted answer model into a DTO.
func NewAnswerResponse(model models.SubmittedAnswer) AnswerResponse {
	return AnswerResponse{
		ID:         model.ID,
		SessionID:  model.SessionID,
		QuestionID: model.QuestionID,
		Verdict:    model.Verdict,
		UpdatedAt:  model.UpdatedAt,
	}
}
