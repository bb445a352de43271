package ai

import "context"

// ReviewInput contains the artefacts a reviewer is looking at: the question's
// key material and the student's free-text response.
type ReviewInput struct {
	QuestionNumber int
	QuestionType   string
	AnswerKey      string
	RawValue       string
	PartValues     []string
}

// ReviewDraft is the advisory feedback drafted for a reviewer. It carries no
// verdict: judging the answer remains a human decision.
type ReviewDraft struct {
	Feedback string `json:"feedback"`
	Model    string `json:"model"`
}

// Assistant describes an AI model capable of drafting review feedback for
// answers awaiting manual grading.
type Assistant interface {
	Draft(ctx context.Context, input ReviewInput) (ReviewDraft, error)
}
