package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hangil-edu/placement-engine/internal/dto"
	"github.com/hangil-edu/placement-engine/internal/events"
	"github.com/hangil-edu/placement-engine/internal/models"
	"github.com/hangil-edu/placement-engine/internal/observability"
	"github.com/hangil-edu/placement-engine/internal/repository"
	"github.com/hangil-edu/placement-engine/pkg/ai"
)

// ErrAnswerNotFound indicates the answer was not located.
var ErrAnswerNotFound = errors.New("answer not found")

// ErrAnswerNotPending indicates a review was attempted on an answer that is
// not awaiting one.
var ErrAnswerNotPending = errors.New("answer is not pending review")

// ErrReviewIncomplete indicates confirmation was attempted while answers are
// still pending review.
var ErrReviewIncomplete = errors.New("answers are still pending review")

// ErrSessionNotCompleted indicates review was attempted before the session
// was finalized.
var ErrSessionNotCompleted = errors.New("session is not completed yet")

// ErrAssistUnavailable indicates no review assistant is configured.
var ErrAssistUnavailable = errors.New("review assistant is not configured")

// ReviewService is the human side of grading: resolving pending verdicts and
// confirming a session's provisional score once nothing is pending.
type ReviewService interface {
	ListPending(ctx context.Context, sessionRef string) ([]dto.PendingAnswerResponse, error)
	Resolve(ctx context.Context, answerID uint, payload dto.ReviewResolveRequest) (dto.AnswerResponse, error)
	Confirm(ctx context.Context, sessionRef string) (dto.PlacementResultResponse, error)
	DraftFeedback(ctx context.Context, answerID uint) (dto.DraftFeedbackResponse, error)
}

type reviewService struct {
	sessions  repository.SessionRepository
	questions repository.QuestionRepository
	levels    LevelService
	publisher events.Publisher
	assistant ai.Assistant
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewReviewService constructs the review service. Both the publisher and the
// assistant are optional.
func NewReviewService(
	sessions repository.SessionRepository,
	questions repository.QuestionRepository,
	levels LevelService,
	publisher events.Publisher,
	assistant ai.Assistant,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		sessions:  sessions,
		questions: questions,
		levels:    levels,
		publisher: publisher,
		assistant: assistant,
		validator: validate,
		logger:    logger.With().Str("component", "review_service").Logger(),
		tracer:    otel.Tracer("github.com/hangil-edu/placement-engine/internal/service/review"),
		now:       time.Now,
	}
}

func (s *reviewService) ListPending(ctx context.Context, sessionRef string) ([]dto.PendingAnswerResponse, error) {
	session, err := s.loadSession(ctx, sessionRef)
	if err != nil {
		return nil, err
	}

	pending := make([]dto.PendingAnswerResponse, 0)
	for _, answer := range session.Answers {
		if answer.Verdict != models.VerdictPendingReview {
			continue
		}

		response, err := dto.NewPendingAnswerResponse(answer)
		if err != nil {
			return nil, err
		}
		pending = append(pending, response)
	}

	return pending, nil
}

func (s *reviewService) Resolve(ctx context.Context, answerID uint, payload dto.ReviewResolveRequest) (dto.AnswerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.resolve", trace.WithAttributes(
		attribute.Int64("review.answer_id", int64(answerID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AnswerResponse{}, err
	}

	answer, err := s.sessions.GetAnswer(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerResponse{}, ErrAnswerNotFound
		}
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}

	if answer.Verdict != models.VerdictPendingReview {
		return dto.AnswerResponse{}, ErrAnswerNotPending
	}

	if *payload.Correct {
		answer.Verdict = models.VerdictCorrect
	} else {
		answer.Verdict = models.VerdictIncorrect
	}
	reviewedAt := s.now()
	reviewer := payload.ReviewerID
	answer.ReviewedAt = &reviewedAt
	answer.ReviewedBy = &reviewer

	if err := s.sessions.UpdateAnswer(ctx, &answer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer_update_failed")
		return dto.AnswerResponse{}, err
	}

	observability.PendingReviews().Dec()
	span.SetAttributes(attribute.String("review.verdict", string(answer.Verdict)))

	return dto.NewAnswerResponse(answer), nil
}

// Confirm recomputes the session's score and percentage now that every
// verdict is final. The recommended level is untouched: placement is driven
// by the adjustment trail, which the review did not change.
func (s *reviewService) Confirm(ctx context.Context, sessionRef string) (dto.PlacementResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.confirm", trace.WithAttributes(
		attribute.String("session.ref", sessionRef),
	))
	defer span.End()

	session, err := s.loadSession(ctx, sessionRef)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	if !session.IsCompleted() {
		return dto.PlacementResultResponse{}, ErrSessionNotCompleted
	}

	if session.PendingReviewCount() > 0 {
		return dto.PlacementResultResponse{}, ErrReviewIncomplete
	}

	if session.RecommendedLevelID == nil {
		return dto.PlacementResultResponse{}, ErrSessionNotCompleted
	}

	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	score := 0
	totalPoints := 0
	outcomes := sessionOutcomes(session, questions)
	for _, outcome := range outcomes {
		totalPoints += outcome.Points
		if outcome.Verdict == models.VerdictCorrect {
			score += outcome.Points
		}
	}

	percentage := 0.0
	if totalPoints > 0 {
		percentage = math.Round(float64(score)/float64(totalPoints)*100*100) / 100
	}

	session.FinalScore = &score
	session.FinalPercentage = &percentage
	session.NeedsManualGrading = false

	if err := s.sessions.Finalize(ctx, &session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirm_write_failed")
		return dto.PlacementResultResponse{}, err
	}

	if s.publisher != nil {
		event := events.SessionEvent{
			SessionRef:         session.Ref,
			StudentID:          session.StudentID,
			Score:              score,
			Percentage:         percentage,
			RecommendedLevelID: *session.RecommendedLevelID,
			NeedsManualGrading: false,
			OccurredAt:         s.now(),
		}
		if err := s.publisher.SessionFinalized(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("session_ref", session.Ref).Msg("failed to publish confirmation event")
		}
	}

	ladder, err := s.levels.Ladder(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	level, err := ladder.Level(*session.RecommendedLevelID)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	span.SetAttributes(attribute.Int("session.score", score))

	return dto.PlacementResultResponse{
		SessionRef:         session.Ref,
		Score:              score,
		Percentage:         percentage,
		RecommendedLevel:   dto.NewLevelResponse(level),
		NeedsManualGrading: false,
	}, nil
}

func (s *reviewService) DraftFeedback(ctx context.Context, answerID uint) (dto.DraftFeedbackResponse, error) {
	if s.assistant == nil {
		return dto.DraftFeedbackResponse{}, ErrAssistUnavailable
	}

	answer, err := s.sessions.GetAnswer(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DraftFeedbackResponse{}, ErrAnswerNotFound
		}
		return dto.DraftFeedbackResponse{}, err
	}

	if answer.Verdict != models.VerdictPendingReview {
		return dto.DraftFeedbackResponse{}, ErrAnswerNotPending
	}

	parts, err := answer.PartList()
	if err != nil {
		return dto.DraftFeedbackResponse{}, err
	}

	values := make([]string, 0, len(parts))
	for _, part := range parts {
		values = append(values, part.Value)
	}

	draft, err := s.assistant.Draft(ctx, ai.ReviewInput{
		QuestionNumber: answer.Question.Number,
		QuestionType:   string(answer.Question.Type),
		AnswerKey:      answer.Question.AnswerKey,
		RawValue:       answer.RawValue,
		PartValues:     values,
	})
	if err != nil {
		return dto.DraftFeedbackResponse{}, err
	}

	return dto.DraftFeedbackResponse{
		AnswerID: answer.ID,
		Feedback: draft.Feedback,
		Model:    draft.Model,
	}, nil
}

func (s *reviewService) loadSession(ctx context.Context, ref string) (models.Session, error) {
	session, err := s.sessions.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}

	return session, nil
}
