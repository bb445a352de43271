package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hangil-edu/placement-engine/internal/models"
)

// ErrQuestionInUse indicates a question's key can no longer be edited because
// graded answers already reference it.
var ErrQuestionInUse = errors.New("question is referenced by submitted answers")

// QuestionRepository defines data operations for exam questions.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (models.Question, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Question, error)
	Update(ctx context.Context, question *models.Question) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionRepository) ListByExam(ctx context.Context, examID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("number ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

// Update persists question edits. Key mutation after sessions have graded
// answers against it is forbidden: old answers were collected against the old
// shape and silently regrading them is undefined behaviour.
func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	var references int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubmittedAnswer{}).
		Where("question_id = ?", question.ID).
		Count(&references).Error; err != nil {
		return err
	}

	if references > 0 {
		return ErrQuestionInUse
	}

	return r.db.WithContext(ctx).Save(question).Error
}
