package dto

import (
	"time"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// ReviewResolveRequest records a human verdict for one pending answer.
type ReviewResolveRequest struct {
	Correct    *bool `json:"correct" validate:"required"`
	ReviewerID uint  `json:"reviewer_id" validate:"required,gt=0"`
}

// PendingAnswerResponse is one answer awaiting manual review.
type PendingAnswerResponse struct {
	AnswerID       uint                `json:"answer_id"`
	QuestionID     uint                `json:"question_id"`
	QuestionNumber int                 `json:"question_number"`
	QuestionType   models.QuestionType `json:"question_type"`
	RawValue       string              `json:"raw_value"`
	Parts          []models.AnswerPart `json:"parts,omitempty"`
	SubmittedAt    time.Time           `json:"submitted_at"`
}

// DraftFeedbackResponse carries an advisory LLM draft for a reviewer. It
// never changes a verdict; a human still judges the answer.
type DraftFeedbackResponse struct {
	AnswerID uint   `json:"answer_id"`
	Feedback string `json:"feedback"`
	Model    string `json:"model"`
}

// NewPendingAnswerResponse converts a pending answer into its review DTO.
func NewPendingAnswerResponse(model models.SubmittedAnswer) (PendingAnswerResponse, error) {
	parts, err := model.PartList()
	if err != nil {
		return PendingAnswerResponse{}, err
	}

	return PendingAnswerResponse{
		AnswerID:       model.ID,
		QuestionID:     model.QuestionID,
		QuestionNumber: model.Question.Number,
		QuestionType:   model.Question.Type,
		RawValue:       model.RawValue,
		Parts:          parts,
		SubmittedAt:    model.UpdatedAt,
	}, nil
}
