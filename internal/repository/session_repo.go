package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// SessionRepository defines data operations for placement sessions. Writes
// that touch a session's answers or trail are serialized per session: each
// runs in a transaction holding the session row, so two concurrent writes to
// the same session cannot race.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uint) (models.Session, error)
	GetByRef(ctx context.Context, ref string) (models.Session, error)
	UpsertAnswer(ctx context.Context, sessionID uint, answer *models.SubmittedAnswer) error
	AppendAdjustment(ctx context.Context, sessionID uint, direction models.AdjustmentDirection) (models.LevelAdjustment, error)
	Finalize(ctx context.Context, session *models.Session) error
	GetAnswer(ctx context.Context, id uint) (models.SubmittedAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.SubmittedAnswer) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository instantiates the repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Session{}).
		Preload("StartingLevel").
		Preload("Adjustments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Answers").
		Preload("Answers.Question")
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uint) (models.Session, error) {
	var session models.Session
	if err := r.baseQuery(ctx).First(&session, id).Error; err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (r *sessionRepository) GetByRef(ctx context.Context, ref string) (models.Session, error) {
	var session models.Session
	if err := r.baseQuery(ctx).Where("ref = ?", ref).First(&session).Error; err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (r *sessionRepository) UpsertAnswer(ctx context.Context, sessionID uint, answer *models.SubmittedAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, sessionID); err != nil {
			return err
		}

		var existing models.SubmittedAnswer
		err := tx.Where("session_id = ? AND question_id = ?", sessionID, answer.QuestionID).
			First(&existing).Error
		switch {
		case err == nil:
			answer.ID = existing.ID
			answer.CreatedAt = existing.CreatedAt
			return tx.Save(answer).Error
		case err == gorm.ErrRecordNotFound:
			return tx.Create(answer).Error
		default:
			return err
		}
	})
}

func (r *sessionRepository) AppendAdjustment(ctx context.Context, sessionID uint, direction models.AdjustmentDirection) (models.LevelAdjustment, error) {
	var adjustment models.LevelAdjustment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, sessionID); err != nil {
			return err
		}

		var last int
		row := tx.Model(&models.LevelAdjustment{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(position), 0)").
			Row()
		if err := row.Scan(&last); err != nil {
			return err
		}

		adjustment = models.LevelAdjustment{
			SessionID: sessionID,
			Direction: direction,
			Position:  last + 1,
		}
		return tx.Create(&adjustment).Error
	})
	if err != nil {
		return models.LevelAdjustment{}, err
	}

	return adjustment, nil
}

func (r *sessionRepository) Finalize(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, session.ID); err != nil {
			return err
		}

		return tx.Model(&models.Session{}).
			Where("id = ?", session.ID).
			Updates(map[string]interface{}{
				"status":               session.Status,
				"final_score":          session.FinalScore,
				"final_percentage":     session.FinalPercentage,
				"recommended_level_id": session.RecommendedLevelID,
				"needs_manual_grading": session.NeedsManualGrading,
				"completed_at":         session.CompletedAt,
				"updated_at":           time.Now(),
			}).Error
	})
}

func (r *sessionRepository) GetAnswer(ctx context.Context, id uint) (models.SubmittedAnswer, error) {
	var answer models.SubmittedAnswer
	if err := r.db.WithContext(ctx).
		Preload("Question").
		First(&answer, id).Error; err != nil {
		return models.SubmittedAnswer{}, err
	}

	return answer, nil
}

func (r *sessionRepository) UpdateAnswer(ctx context.Context, answer *models.SubmittedAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, answer.SessionID); err != nil {
			return err
		}

		return tx.Save(answer).Error
	})
}

// lockSession takes the per-session write lock inside tx. SQLite, used by the
// tests, serializes whole transactions and has no FOR UPDATE.
func lockSession(tx *gorm.DB, sessionID uint) error {
	query := tx
	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var session models.Session
	return query.Select("id").First(&session, sessionID).Error
}
