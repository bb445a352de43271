package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// SubjectSessionFinalized announces a completed session with a final
	// placement recommendation.
	SubjectSessionFinalized = "placement.session.finalized"
	// SubjectSessionNeedsReview announces a completed session whose score is
	// provisional until a human confirms the pending verdicts.
	SubjectSessionNeedsReview = "placement.session.needs_review"
	// SubjectSessionComplete carries requests asking the grader worker to
	// finalize a session.
	SubjectSessionComplete = "placement.session.complete"
	// SubjectSessionConfirm carries requests asking the grader worker to
	// confirm a session once manual review finished.
	SubjectSessionConfirm = "placement.session.confirm"
)

// SessionEvent is the payload published when a session reaches a result.
type SessionEvent struct {
	SessionRef         string    `json:"session_ref"`
	StudentID          uint      `json:"student_id"`
	Score              int       `json:"score"`
	Percentage         float64   `json:"percentage"`
	RecommendedLevelID uint      `json:"recommended_level_id"`
	NeedsManualGrading bool      `json:"needs_manual_grading"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// CompleteRequest asks the worker to finalize the named session.
type CompleteRequest struct {
	SessionRef string `json:"session_ref"`
}

// Publisher emits placement events to the host application.
type Publisher interface {
	SessionFinalized(ctx context.Context, event SessionEvent) error
	SessionNeedsReview(ctx context.Context, event SessionEvent) error
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSPublisher builds a publisher over the given NATS connection.
func NewNATSPublisher(conn *nats.Conn, logger zerolog.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (p *natsPublisher) SessionFinalized(ctx context.Context, event SessionEvent) error {
	return p.publish(SubjectSessionFinalized, event)
}

func (p *natsPublisher) SessionNeedsReview(ctx context.Context, event SessionEvent) error {
	return p.publish(SubjectSessionNeedsReview, event)
}

func (p *natsPublisher) publish(subject string, event SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to publish event")
		return err
	}

	return nil
}

// SubscribeCompleteRequests delivers finalization requests to the handler
// until the subscription is drained. Malformed payloads are logged and
// dropped.
func SubscribeCompleteRequests(conn *nats.Conn, logger zerolog.Logger, handler func(CompleteRequest)) (*nats.Subscription, error) {
	return subscribeRequests(conn, SubjectSessionComplete, logger, handler)
}

// SubscribeConfirmRequests delivers post-review confirmation requests to the
// handler.
func SubscribeConfirmRequests(conn *nats.Conn, logger zerolog.Logger, handler func(CompleteRequest)) (*nats.Subscription, error) {
	return subscribeRequests(conn, SubjectSessionConfirm, logger, handler)
}

func subscribeRequests(conn *nats.Conn, subject string, logger zerolog.Logger, handler func(CompleteRequest)) (*nats.Subscription, error) {
	log := logger.With().Str("component", "events").Str("subject", subject).Logger()

	return conn.Subscribe(subject, func(msg *nats.Msg) {
		var request CompleteRequest
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Warn().Err(err).Msg("dropping malformed request")
			return
		}
		if request.SessionRef == "" {
			log.Warn().Msg("dropping request without session ref")
			return
		}
		handler(request)
	})
}
