package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	// QuestionTypeSingleChoice expects exactly one answer letter.
	QuestionTypeSingleChoice QuestionType = "single_choice"
	// QuestionTypeCheckbox expects a set of answer letters.
	QuestionTypeCheckbox QuestionType = "checkbox"
	// QuestionTypeShortAnswer expects one or more short free-text values.
	QuestionTypeShortAnswer QuestionType = "short_answer"
	// QuestionTypeLongAnswer expects an essay-style response.
	QuestionTypeLongAnswer QuestionType = "long_answer"
	// QuestionTypeMixed combines choice and free-text components.
	QuestionTypeMixed QuestionType = "mixed"
)

// Valid reports whether the question type is one of the known variants.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeCheckbox, QuestionTypeShortAnswer, QuestionTypeLongAnswer, QuestionTypeMixed:
		return true
	default:
		return false
	}
}

// Question is a single item inside an exam paper.
//
// AnswerKey carries the correct answer for all types except mixed: a single
// letter, a comma-separated letter set, or a comma-separated list of expected
// short-answer values. Mixed questions store their ordered component
// descriptors in MixedKey as a JSON document instead.
//
// ComponentCount is the number of answer slots the student interface renders.
// It may diverge from what the stored key implies; the count wins.
type Question struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ExamID         uint           `gorm:"not null;index" json:"exam_id"`
	Number         int            `gorm:"not null" json:"number"`
	Type           QuestionType   `gorm:"size:32;not null" json:"type"`
	AnswerKey      string         `gorm:"type:text" json:"answer_key"`
	MixedKey       datatypes.JSON `gorm:"type:json" json:"mixed_key"`
	ComponentCount int            `gorm:"not null;default:1" json:"component_count"`
	Points         int            `gorm:"not null;default:1" json:"points"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Exam           Exam           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// AutoGradable reports whether the engine can reach a final verdict for this
// question type without human review.
func (q Question) AutoGradable() bool {
	return q.Type == QuestionTypeSingleChoice || q.Type == QuestionTypeCheckbox
}
