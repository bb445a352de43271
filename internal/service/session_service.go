package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hangil-edu/placement-engine/internal/curriculum"
	"github.com/hangil-edu/placement-engine/internal/dto"
	"github.com/hangil-edu/placement-engine/internal/events"
	"github.com/hangil-edu/placement-engine/internal/grading"
	"github.com/hangil-edu/placement-engine/internal/models"
	"github.com/hangil-edu/placement-engine/internal/observability"
	"github.com/hangil-edu/placement-engine/internal/placement"
	"github.com/hangil-edu/placement-engine/internal/repository"
)

// ErrSessionNotFound indicates the session was not located.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionCompleted indicates a write was attempted against a finalized
// session.
var ErrSessionCompleted = errors.New("session already completed")

// ErrQuestionNotFound indicates the question was not located.
var ErrQuestionNotFound = errors.New("question not found")

// ErrQuestionNotInExam indicates the question belongs to a different exam
// than the session.
var ErrQuestionNotInExam = errors.New("question does not belong to the session's exam")

// SessionService drives the lifecycle of a placement session: start, answer
// submission, mid-test level adjustment and finalization.
type SessionService interface {
	Start(ctx context.Context, payload dto.SessionStartRequest) (dto.SessionResponse, error)
	SubmitAnswer(ctx context.Context, sessionRef string, payload dto.AnswerSubmitRequest) (dto.AnswerResponse, error)
	RequestAdjustment(ctx context.Context, sessionRef string, payload dto.AdjustmentRequest) (dto.AdjustmentResponse, error)
	Complete(ctx context.Context, sessionRef string) (dto.PlacementResultResponse, error)
}

type sessionService struct {
	sessions  repository.SessionRepository
	questions repository.QuestionRepository
	rules     repository.PlacementRuleRepository
	levels    LevelService
	publisher events.Publisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewSessionService constructs the session service. The publisher may be nil
// when the host application does not consume events.
func NewSessionService(
	sessions repository.SessionRepository,
	questions repository.QuestionRepository,
	rules repository.PlacementRuleRepository,
	levels LevelService,
	publisher events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) SessionService {
	return &sessionService{
		sessions:  sessions,
		questions: questions,
		rules:     rules,
		levels:    levels,
		publisher: publisher,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "session_service").Logger(),
		tracer:    otel.Tracer("github.com/hangil-edu/placement-engine/internal/service/session"),
		now:       time.Now,
	}
}

func (s *sessionService) Start(ctx context.Context, payload dto.SessionStartRequest) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "session.start", trace.WithAttributes(
		attribute.Int64("session.exam_id", int64(payload.ExamID)),
		attribute.Int64("session.student_id", int64(payload.StudentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SessionResponse{}, err
	}

	session := models.Session{
		Ref:       uuid.NewString(),
		ExamID:    payload.ExamID,
		StudentID: payload.StudentID,
		Status:    models.SessionStatusInProgress,
		StartedAt: s.now(),
	}

	rule, err := s.rules.FindFor(ctx, payload.SchoolGrade, payload.ClassRank)
	switch {
	case err == nil:
		levelID := rule.LevelID
		session.StartingLevelID = &levelID
		level := rule.Level
		session.StartingLevel = &level
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No rule for this grade+rank: the session can still run, but
		// finalizing it will fail until a rule is configured.
		s.logger.Warn().
			Int("school_grade", payload.SchoolGrade).
			Int("class_rank", payload.ClassRank).
			Msg("no placement rule matched; session starts without a level")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "rule_lookup_failed")
		return dto.SessionResponse{}, err
	}

	if err := s.sessions.Create(ctx, &session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_create_failed")
		return dto.SessionResponse{}, err
	}

	span.SetAttributes(attribute.String("session.ref", session.Ref))
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionRef string, payload dto.AnswerSubmitRequest) (dto.AnswerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "session.submit_answer", trace.WithAttributes(
		attribute.String("session.ref", sessionRef),
		attribute.Int64("answer.question_id", int64(payload.QuestionID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AnswerResponse{}, err
	}

	session, err := s.loadSession(ctx, sessionRef)
	if err != nil {
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}

	if session.IsCompleted() {
		return dto.AnswerResponse{}, ErrSessionCompleted
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerResponse{}, ErrQuestionNotFound
		}
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}

	if question.ExamID != session.ExamID {
		return dto.AnswerResponse{}, ErrQuestionNotInExam
	}

	answer := models.SubmittedAnswer{
		SessionID:  session.ID,
		QuestionID: question.ID,
		RawValue:   s.cleanValue(question.Type, payload.Value),
	}

	if len(payload.Parts) > 0 {
		parts := make([]models.AnswerPart, 0, len(payload.Parts))
		for _, part := range payload.Parts {
			parts = append(parts, models.AnswerPart{
				Label: strings.ToUpper(strings.TrimSpace(part.Label)),
				Value: s.cleanValue(question.Type, part.Value),
			})
		}
		if err := answer.SetParts(parts); err != nil {
			span.RecordError(err)
			return dto.AnswerResponse{}, err
		}
	}

	verdict, err := grading.Grade(question, answer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading_failed")
		return dto.AnswerResponse{}, err
	}
	answer.Verdict = verdict

	if err := s.sessions.UpsertAnswer(ctx, session.ID, &answer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer_write_failed")
		return dto.AnswerResponse{}, err
	}

	observability.Gradings().WithLabelValues(string(question.Type), string(verdict)).Inc()
	s.trackReviewBacklog(session, question.ID, verdict)

	span.SetAttributes(attribute.String("answer.verdict", string(verdict)))
	return dto.NewAnswerResponse(answer), nil
}

func (s *sessionService) RequestAdjustment(ctx context.Context, sessionRef string, payload dto.AdjustmentRequest) (dto.AdjustmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "session.adjust", trace.WithAttributes(
		attribute.String("session.ref", sessionRef),
		attribute.String("adjustment.direction", payload.Direction),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AdjustmentResponse{}, err
	}

	session, err := s.loadSession(ctx, sessionRef)
	if err != nil {
		span.RecordError(err)
		return dto.AdjustmentResponse{}, err
	}

	if session.IsCompleted() {
		return dto.AdjustmentResponse{}, ErrSessionCompleted
	}

	if session.StartingLevelID == nil {
		return dto.AdjustmentResponse{}, placement.ErrPlacementNotConfigured
	}

	adjustment, err := s.sessions.AppendAdjustment(ctx, session.ID, models.AdjustmentDirection(payload.Direction))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "adjustment_write_failed")
		return dto.AdjustmentResponse{}, err
	}

	ladder, err := s.levels.Ladder(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.AdjustmentResponse{}, err
	}

	trail := append(append([]models.LevelAdjustment(nil), session.Adjustments...), adjustment)
	effective, err := ladder.Walk(*session.StartingLevelID, trail)
	if err != nil {
		span.RecordError(err)
		return dto.AdjustmentResponse{}, err
	}

	return dto.AdjustmentResponse{
		Position:         adjustment.Position,
		Direction:        string(adjustment.Direction),
		EffectiveLevelID: effective,
	}, nil
}

func (s *sessionService) Complete(ctx context.Context, sessionRef string) (dto.PlacementResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "session.complete", trace.WithAttributes(
		attribute.String("session.ref", sessionRef),
	))
	defer span.End()

	session, err := s.loadSession(ctx, sessionRef)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	ladder, err := s.levels.Ladder(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	if session.IsCompleted() {
		// Finalization already happened; re-completion returns the stored
		// result unchanged.
		span.SetAttributes(attribute.Bool("session.idempotent", true))
		return storedResult(session, ladder)
	}

	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	outcomes := sessionOutcomes(session, questions)
	calculator := placement.NewCalculator(ladder)
	result, err := calculator.Finalize(session.StartingLevelID, session.Adjustments, outcomes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize_failed")
		return dto.PlacementResultResponse{}, err
	}

	completedAt := s.now()
	session.Status = models.SessionStatusCompleted
	session.FinalScore = &result.Score
	session.FinalPercentage = &result.Percentage
	session.RecommendedLevelID = &result.RecommendedLevelID
	session.NeedsManualGrading = result.NeedsManualGrading
	session.CompletedAt = &completedAt

	if err := s.sessions.Finalize(ctx, &session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize_write_failed")
		return dto.PlacementResultResponse{}, err
	}

	observability.SessionsFinalized().
		WithLabelValues(strconv.FormatBool(result.NeedsManualGrading)).Inc()
	s.publishResult(ctx, session, result.Score, result.Percentage, result.RecommendedLevelID, result.NeedsManualGrading)

	level, err := ladder.Level(result.RecommendedLevelID)
	if err != nil {
		span.RecordError(err)
		return dto.PlacementResultResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("session.score", result.Score),
		attribute.Bool("session.needs_manual_grading", result.NeedsManualGrading),
	)

	return dto.PlacementResultResponse{
		SessionRef:         session.Ref,
		Score:              result.Score,
		Percentage:         result.Percentage,
		RecommendedLevel:   dto.NewLevelResponse(level),
		NeedsManualGrading: result.NeedsManualGrading,
	}, nil
}

func (s *sessionService) loadSession(ctx context.Context, ref string) (models.Session, error) {
	session, err := s.sessions.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}

	return session, nil
}

// cleanValue strips markup from free-text payloads before storage. Letter
// payloads are only trimmed.
func (s *sessionService) cleanValue(questionType models.QuestionType, value string) string {
	switch questionType {
	case models.QuestionTypeShortAnswer, models.QuestionTypeLongAnswer, models.QuestionTypeMixed:
		return strings.TrimSpace(s.sanitizer.Sanitize(value))
	default:
		return strings.TrimSpace(value)
	}
}

// trackReviewBacklog keeps the pending-review gauge in step when a
// submission creates, keeps or replaces a pending verdict.
func (s *sessionService) trackReviewBacklog(session models.Session, questionID uint, verdict models.Verdict) {
	previous := models.Verdict("")
	for _, existing := range session.Answers {
		if existing.QuestionID == questionID {
			previous = existing.Verdict
			break
		}
	}

	wasPending := previous == models.VerdictPendingReview
	isPending := verdict == models.VerdictPendingReview
	switch {
	case isPending && !wasPending:
		observability.PendingReviews().Inc()
	case !isPending && wasPending:
		observability.PendingReviews().Dec()
	}
}

func (s *sessionService) publishResult(ctx context.Context, session models.Session, score int, percentage float64, levelID uint, needsReview bool) {
	if s.publisher == nil {
		return
	}

	event := events.SessionEvent{
		SessionRef:         session.Ref,
		StudentID:          session.StudentID,
		Score:              score,
		Percentage:         percentage,
		RecommendedLevelID: levelID,
		NeedsManualGrading: needsReview,
		OccurredAt:         s.now(),
	}

	var err error
	if needsReview {
		err = s.publisher.SessionNeedsReview(ctx, event)
	} else {
		err = s.publisher.SessionFinalized(ctx, event)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("session_ref", session.Ref).Msg("failed to publish session event")
	}
}

// sessionOutcomes pairs every exam question with its graded verdict. A
// question with no submission at all counts as unanswered: zero points, but
// still part of the gradable denominator.
func sessionOutcomes(session models.Session, questions []models.Question) []placement.Outcome {
	byQuestion := make(map[uint]models.Verdict, len(session.Answers))
	for _, answer := range session.Answers {
		byQuestion[answer.QuestionID] = answer.Verdict
	}

	outcomes := make([]placement.Outcome, 0, len(questions))
	for _, question := range questions {
		verdict, ok := byQuestion[question.ID]
		if !ok {
			verdict = models.VerdictUnanswered
		}
		outcomes = append(outcomes, placement.Outcome{
			Points:  question.Points,
			Verdict: verdict,
		})
	}

	return outcomes
}

func storedResult(session models.Session, ladder *curriculum.Ladder) (dto.PlacementResultResponse, error) {
	if session.RecommendedLevelID == nil || session.FinalScore == nil || session.FinalPercentage == nil {
		return dto.PlacementResultResponse{}, ErrSessionNotFound
	}

	level, err := ladder.Level(*session.RecommendedLevelID)
	if err != nil {
		return dto.PlacementResultResponse{}, err
	}

	return dto.PlacementResultResponse{
		SessionRef:         session.Ref,
		Score:              *session.FinalScore,
		Percentage:         *session.FinalPercentage,
		RecommendedLevel:   dto.NewLevelResponse(level),
		NeedsManualGrading: session.NeedsManualGrading,
	}, nil
}
