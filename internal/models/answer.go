package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Verdict is the grading outcome for one submitted answer.
type Verdict string

const (
	// VerdictCorrect means the answer matched its key.
	VerdictCorrect Verdict = "correct"
	// VerdictIncorrect means the answer was attempted but wrong or incomplete.
	VerdictIncorrect Verdict = "incorrect"
	// VerdictPendingReview means a human must judge the answer content.
	VerdictPendingReview Verdict = "pending_review"
	// VerdictUnanswered means the student skipped the question entirely.
	VerdictUnanswered Verdict = "unanswered"
)

// Final reports whether the verdict needs no further human input. Unanswered
// is final: it scores zero but is distinguished from incorrect for reporting.
func (v Verdict) Final() bool {
	return v == VerdictCorrect || v == VerdictIncorrect || v == VerdictUnanswered
}

// AnswerPart is one labelled slot of a multi-component submission.
type AnswerPart struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SubmittedAnswer is one student's response to one question within a session.
//
// RawValue holds single-slot payloads (a letter, a letter set, a free-text
// string). Multi-component submissions are stored as an ordered list of
// AnswerPart in Parts instead.
type SubmittedAnswer struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SessionID  uint           `gorm:"not null;index:idx_session_question,unique" json:"session_id"`
	QuestionID uint           `gorm:"not null;index:idx_session_question,unique" json:"question_id"`
	RawValue   string         `gorm:"type:text" json:"raw_value"`
	Parts      datatypes.JSON `gorm:"type:json" json:"parts"`
	Verdict    Verdict        `gorm:"size:16;not null" json:"verdict"`
	ReviewedBy *uint          `json:"reviewed_by"`
	ReviewedAt *time.Time     `json:"reviewed_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Question   Question       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
}

// PartList decodes the structured component payload. An absent or empty
// document yields a nil slice, not an error.
func (a SubmittedAnswer) PartList() ([]AnswerPart, error) {
	if len(a.Parts) == 0 {
		return nil, nil
	}

	var parts []AnswerPart
	if err := json.Unmarshal(a.Parts, &parts); err != nil {
		return nil, err
	}

	return parts, nil
}

// SetParts encodes the structured component payload.
func (a *SubmittedAnswer) SetParts(parts []AnswerPart) error {
	if len(parts) == 0 {
		a.Parts = nil
		return nil
	}

	data, err := json.Marshal(parts)
	if err != nil {
		return err
	}

	a.Parts = datatypes.JSON(data)
	return nil
}
