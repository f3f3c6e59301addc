package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mockinterview-backend/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a status transition's precondition no longer holds.
	ErrConflict = errors.New("interview status conflict")
)

type InterviewRepository interface {
	CreateWithQuestions(ctx context.Context, interview *model.Interview, questions []model.Question) error
	GetInterview(ctx context.Context, id string) (*model.Interview, error)
	ListInterviews(ctx context.Context, limit, offset int) ([]model.Interview, error)
	GetQuestions(ctx context.Context, interviewID string) ([]model.Question, error)
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	MarkCompleted(ctx context.Context, id string, at time.Time) error
	MarkAbandoned(ctx context.Context, id string) error
}

type interviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

// CreateWithQuestions inserts the interview and its questions in one transaction,
// so a failed question insert leaves no interview behind.
func (r *interviewRepository) CreateWithQuestions(ctx context.Context, interview *model.Interview, questions []model.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(interview).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		return tx.Create(&questions).Error
	})
}

func (r *interviewRepository) GetInterview(ctx context.Context, id string) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&interview).Error
	if err != nil {
		return nil, translate(err)
	}
	return &interview, nil
}

func (r *interviewRepository) ListInterviews(ctx context.Context, limit, offset int) ([]model.Interview, error) {
	var interviews []model.Interview
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&interviews).Error
	return interviews, err
}

func (r *interviewRepository) GetQuestions(ctx context.Context, interviewID string) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("order_number asc").
		Find(&questions).Error
	return questions, err
}

func (r *interviewRepository) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error
	if err != nil {
		return nil, translate(err)
	}
	return &question, nil
}

func (r *interviewRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":       model.StatusCompleted,
		"completed_at": at,
	})
}

func (r *interviewRepository) MarkAbandoned(ctx context.Context, id string) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status": model.StatusAbandoned,
	})
}

// transition applies updates only while the interview is still in progress.
func (r *interviewRepository) transition(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Interview{}).
		Where("id = ? AND status = ?", id, model.StatusInProgress).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.GetInterview(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
