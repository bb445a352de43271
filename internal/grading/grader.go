package grading

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// ErrUnknownQuestionType indicates a question carries a type the engine does
// not recognise.
var ErrUnknownQuestionType = errors.New("unknown question type")

// Grade evaluates one submitted answer against its question's answer key.
// It is a pure function: no side effects, no I/O. Letter comparisons are
// case-insensitive throughout, and an entirely empty submission yields
// VerdictUnanswered rather than VerdictIncorrect so downstream reporting can
// tell "skipped" apart from "tried and wrong".
func Grade(question models.Question, answer models.SubmittedAnswer) (models.Verdict, error) {
	switch question.Type {
	case models.QuestionTypeSingleChoice:
		return gradeSingleChoice(question, answer)
	case models.QuestionTypeCheckbox:
		return gradeCheckbox(question, answer)
	case models.QuestionTypeShortAnswer:
		return gradeShortAnswer(question, answer)
	case models.QuestionTypeLongAnswer:
		return gradeLongAnswer(answer)
	case models.QuestionTypeMixed:
		return gradeMixed(question, answer)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownQuestionType, question.Type)
	}
}

func gradeSingleChoice(question models.Question, answer models.SubmittedAnswer) (models.Verdict, error) {
	key := strings.TrimSpace(question.AnswerKey)
	if key == "" {
		return "", fmt.Errorf("%w: single choice question %d has no key letter", ErrMalformedAnswerKey, question.ID)
	}

	value := strings.TrimSpace(answer.RawValue)
	if value == "" {
		return models.VerdictUnanswered, nil
	}

	if strings.EqualFold(value, key) {
		return models.VerdictCorrect, nil
	}

	return models.VerdictIncorrect, nil
}

func gradeCheckbox(question models.Question, answer models.SubmittedAnswer) (models.Verdict, error) {
	expected := letterSet(question.AnswerKey)
	if len(expected) == 0 {
		return "", fmt.Errorf("%w: checkbox question %d has an empty letter set", ErrMalformedAnswerKey, question.ID)
	}

	if strings.TrimSpace(answer.RawValue) == "" {
		return models.VerdictUnanswered, nil
	}

	// Exact set equality: a strict subset or superset earns no partial credit.
	if equalLetterSets(letterSet(answer.RawValue), expected) {
		return models.VerdictCorrect, nil
	}

	return models.VerdictIncorrect, nil
}

func gradeShortAnswer(question models.Question, answer models.SubmittedAnswer) (models.Verdict, error) {
	if question.ComponentCount <= 1 {
		key := strings.TrimSpace(question.AnswerKey)
		if key == "" {
			return "", fmt.Errorf("%w: short answer question %d has no expected value", ErrMalformedAnswerKey, question.ID)
		}

		value := strings.TrimSpace(answer.RawValue)
		if value == "" {
			return models.VerdictUnanswered, nil
		}

		if strings.EqualFold(value, key) {
			return models.VerdictCorrect, nil
		}

		return models.VerdictIncorrect, nil
	}

	// Multi-part short answers are a manual-grading type: the engine only
	// validates that every rendered slot was filled in, never the content.
	values, err := slotValues(answer, question.ComponentCount)
	if err != nil {
		return "", err
	}

	filled := 0
	for _, value := range values {
		if value != "" {
			filled++
		}
	}

	if filled == 0 {
		return models.VerdictUnanswered, nil
	}

	if filled < question.ComponentCount {
		return models.VerdictIncorrect, nil
	}

	return models.VerdictPendingReview, nil
}

func gradeLongAnswer(answer models.SubmittedAnswer) (models.Verdict, error) {
	if strings.TrimSpace(answer.RawValue) == "" {
		return models.VerdictUnanswered, nil
	}

	return models.VerdictPendingReview, nil
}

func gradeMixed(question models.Question, answer models.SubmittedAnswer) (models.Verdict, error) {
	components, err := ParseMixedKey(question.MixedKey)
	if err != nil {
		return "", err
	}

	// ComponentCount is authoritative for how many slots exist; the stored
	// key structure yields to it when the two disagree.
	count := question.ComponentCount
	if count <= 0 {
		count = len(components)
	}

	values, err := slotValues(answer, count)
	if err != nil {
		return "", err
	}

	filled := 0
	for _, value := range values {
		if value != "" {
			filled++
		}
	}
	if filled == 0 {
		return models.VerdictUnanswered, nil
	}

	hasText := false
	for i := 0; i < count; i++ {
		// Slots past the end of the key are treated as free-text: the UI
		// rendered them, so they must at least be filled in.
		component := KeyComponent{Kind: ComponentText}
		if i < len(components) {
			component = components[i]
		}

		switch component.Kind {
		case ComponentChoice:
			expected := letterSet(component.Letters)
			if len(expected) == 0 {
				return "", fmt.Errorf("%w: mixed question %d component %d has an empty letter set", ErrMalformedAnswerKey, question.ID, i+1)
			}
			if !equalLetterSets(letterSet(values[i]), expected) {
				return models.VerdictIncorrect, nil
			}
		case ComponentText:
			hasText = true
			if values[i] == "" {
				return models.VerdictIncorrect, nil
			}
		default:
			return "", fmt.Errorf("%w: mixed question %d component %d has kind %q", ErrMalformedAnswerKey, question.ID, i+1, component.Kind)
		}
	}

	if hasText {
		return models.VerdictPendingReview, nil
	}

	return models.VerdictCorrect, nil
}

// slotValues resolves the submitted value for each of the first count answer
// slots, matching parts by letter label first and falling back to position.
func slotValues(answer models.SubmittedAnswer, count int) ([]string, error) {
	parts, err := answer.PartList()
	if err != nil {
		return nil, fmt.Errorf("decode answer parts: %w", err)
	}

	byLabel := make(map[string]string, len(parts))
	for _, part := range parts {
		label := strings.ToUpper(strings.TrimSpace(part.Label))
		if label != "" {
			byLabel[label] = strings.TrimSpace(part.Value)
		}
	}

	values := make([]string, count)
	for i := range values {
		if value, ok := byLabel[slotLabel(i)]; ok {
			values[i] = value
			continue
		}
		if i < len(parts) {
			values[i] = strings.TrimSpace(parts[i].Value)
		}
	}

	return values, nil
}
