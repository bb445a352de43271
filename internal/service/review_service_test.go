package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hangil-edu/placement-engine/internal/dto"
	"github.com/hangil-edu/placement-engine/internal/models"
	"github.com/hangil-edu/placement-engine/pkg/ai"
)

type fakeAssistant struct {
	lastInput ai.ReviewInput
	draft     ai.ReviewDraft
	err       error
}

func (a *fakeAssistant) Draft(ctx context.Context, input ai.ReviewInput) (ai.ReviewDraft, error) {
	a.lastInput = input
	return a.draft, a.err
}

type reviewFixture struct {
	*sessionFixture
	review     ReviewService
	assistant  *fakeAssistant
	sessionRef string
	essayID    uint
}

// newReviewFixture runs a session up to completion with one correct
// single-choice answer and one pending essay, then wires the review service
// over the same stores.
func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	base := newSessionFixture(t)
	session := base.start(t)

	ctx := context.Background()
	_, err := base.service.SubmitAnswer(ctx, session.Ref, dto.AnswerSubmitRequest{QuestionID: 1, Value: "A"})
	require.NoError(t, err)
	essay, err := base.service.SubmitAnswer(ctx, session.Ref, dto.AnswerSubmitRequest{QuestionID: 3, Value: "an essay about verbs"})
	require.NoError(t, err)
	require.Equal(t, models.VerdictPendingReview, essay.Verdict)

	result, err := base.service.Complete(ctx, session.Ref)
	require.NoError(t, err)
	require.True(t, result.NeedsManualGrading)

	assistant := &fakeAssistant{draft: ai.ReviewDraft{Feedback: "solid reasoning, awkward phrasing", Model: "gpt-4o-mini"}}
	review := NewReviewService(base.sessions, base.questions, staticLevels{levels: base.levels}, base.publisher, assistant, testValidator(), testLogger())

	return &reviewFixture{
		sessionFixture: base,
		review:         review,
		assistant:      assistant,
		sessionRef:     session.Ref,
		essayID:        essay.ID,
	}
}

func boolPtr(v bool) *bool { return &v }

func TestListPendingReturnsOnlyPendingAnswers(t *testing.T) {
	fixture := newReviewFixture(t)

	pending, err := fixture.review.ListPending(context.Background(), fixture.sessionRef)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, fixture.essayID, pending[0].AnswerID)
	require.Equal(t, 3, pending[0].QuestionNumber)
	require.Equal(t, models.QuestionTypeLongAnswer, pending[0].QuestionType)
	require.Equal(t, "an essay about verbs", pending[0].RawValue)
}

func TestResolveRecordsVerdictAndReviewer(t *testing.T) {
	fixture := newReviewFixture(t)

	ctx := context.Background()
	response, err := fixture.review.Resolve(ctx, fixture.essayID, dto.ReviewResolveRequest{Correct: boolPtr(true), ReviewerID: 8})
	require.NoError(t, err)
	require.Equal(t, models.VerdictCorrect, response.Verdict)

	stored, err := fixture.sessions.GetAnswer(ctx, fixture.essayID)
	require.NoError(t, err)
	require.Equal(t, models.VerdictCorrect, stored.Verdict)
	require.NotNil(t, stored.ReviewedBy)
	require.Equal(t, uint(8), *stored.ReviewedBy)
	require.NotNil(t, stored.ReviewedAt)

	// A verdict, once resolved, cannot be resolved again.
	_, err = fixture.review.Resolve(ctx, fixture.essayID, dto.ReviewResolveRequest{Correct: boolPtr(false), ReviewerID: 8})
	require.ErrorIs(t, err, ErrAnswerNotPending)
}

func TestResolveUnknownAnswer(t *testing.T) {
	fixture := newReviewFixture(t)

	_, err := fixture.review.Resolve(context.Background(), 999, dto.ReviewResolveRequest{Correct: boolPtr(true), ReviewerID: 8})
	require.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestResolveValidatesPayload(t *testing.T) {
	fixture := newReviewFixture(t)

	_, err := fixture.review.Resolve(context.Background(), fixture.essayID, dto.ReviewResolveRequest{ReviewerID: 8})
	require.Error(t, err)
}

func TestConfirmRecomputesScoreOverAllPoints(t *testing.T) {
	fixture := newReviewFixture(t)

	ctx := context.Background()
	_, err := fixture.review.Resolve(ctx, fixture.essayID, dto.ReviewResolveRequest{Correct: boolPtr(true), ReviewerID: 8})
	require.NoError(t, err)

	result, err := fixture.review.Confirm(ctx, fixture.sessionRef)
	require.NoError(t, err)
	// Question 1 (1 pt) and the essay (2 pts) are correct; question 2 was
	// never answered. 3 of 4 total points.
	require.Equal(t, 3, result.Score)
	require.InDelta(t, 75.0, result.Percentage, 0.0001)
	require.False(t, result.NeedsManualGrading)

	// The recommendation is untouched by the review pass.
	require.Equal(t, uint(2), result.RecommendedLevel.ID)

	stored, err := fixture.sessions.GetByRef(ctx, fixture.sessionRef)
	require.NoError(t, err)
	require.False(t, stored.NeedsManualGrading)
	require.NotNil(t, stored.FinalScore)
	require.Equal(t, 3, *stored.FinalScore)

	require.Len(t, fixture.publisher.finalized, 1)
}

func TestConfirmRefusedWhileAnswersPending(t *testing.T) {
	fixture := newReviewFixture(t)

	_, err := fixture.review.Confirm(context.Background(), fixture.sessionRef)
	require.ErrorIs(t, err, ErrReviewIncomplete)
}

func TestConfirmRequiresCompletedSession(t *testing.T) {
	fixture := newReviewFixture(t)

	// A fresh, still-running session cannot be confirmed.
	open := fixture.start(t)
	_, err := fixture.review.Confirm(context.Background(), open.Ref)
	require.ErrorIs(t, err, ErrSessionNotCompleted)
}

func TestDraftFeedback(t *testing.T) {
	fixture := newReviewFixture(t)

	ctx := context.Background()
	draft, err := fixture.review.DraftFeedback(ctx, fixture.essayID)
	require.NoError(t, err)
	require.Equal(t, fixture.essayID, draft.AnswerID)
	require.Equal(t, "solid reasoning, awkward phrasing", draft.Feedback)
	require.Equal(t, "gpt-4o-mini", draft.Model)
	require.Equal(t, "an essay about verbs", fixture.assistant.lastInput.RawValue)
	require.Equal(t, 3, fixture.assistant.lastInput.QuestionNumber)

	// Drafts are only produced for answers still awaiting review.
	_, err = fixture.review.Resolve(ctx, fixture.essayID, dto.ReviewResolveRequest{Correct: boolPtr(true), ReviewerID: 8})
	require.NoError(t, err)
	_, err = fixture.review.DraftFeedback(ctx, fixture.essayID)
	require.ErrorIs(t, err, ErrAnswerNotPending)
}

func TestDraftFeedbackWithoutAssistant(t *testing.T) {
	fixture := newReviewFixture(t)

	review := NewReviewService(fixture.sessions, fixture.questions, staticLevels{levels: fixture.levels}, nil, nil, testValidator(), testLogger())
	_, err := review.DraftFeedback(context.Background(), fixture.essayID)
	require.ErrorIs(t, err, ErrAssistUnavailable)
}
