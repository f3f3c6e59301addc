package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mockinterview-backend/internal/model"
)

type ResponseRepository interface {
	// UpsertResponse inserts a response or updates the existing one for the same
	// question in place. On return resp.ID holds the persisted id.
	UpsertResponse(ctx context.Context, resp *model.Response) error
	GetResponseByQuestion(ctx context.Context, questionID string) (*model.Response, error)
	UpdateResponseText(ctx context.Context, responseID, text string) error
	ListResponses(ctx context.Context, questionIDs []string) ([]model.Response, error)
}

type FeedbackRepository interface {
	// UpsertFeedback keeps at most one feedback row per response.
	UpsertFeedback(ctx context.Context, feedback *model.Feedback) error
	GetFeedbackByResponse(ctx context.Context, responseID string) (*model.Feedback, error)
	// DeleteFeedbackByResponse removes the response's feedback if it has any.
	DeleteFeedbackByResponse(ctx context.Context, responseID string) error
	ListFeedback(ctx context.Context, responseIDs []string) ([]model.Feedback, error)
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) UpsertResponse(ctx context.Context, resp *model.Response) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Response
		err := tx.Where("question_id = ?", resp.QuestionID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if resp.ID == "" {
				resp.ID = uuid.NewString()
			}
			return tx.Create(resp).Error
		}
		if err != nil {
			return err
		}

		resp.ID = existing.ID
		resp.CreatedAt = existing.CreatedAt
		return tx.Model(&model.Response{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"response_type": resp.ResponseType,
				"response_text": resp.ResponseText,
				"media_url":     resp.MediaURL,
			}).Error
	})
}

func (r *responseRepository) GetResponseByQuestion(ctx context.Context, questionID string) (*model.Response, error) {
	var resp model.Response
	err := r.db.WithContext(ctx).Where("question_id = ?", questionID).First(&resp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &resp, nil
}

func (r *responseRepository) UpdateResponseText(ctx context.Context, responseID, text string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Response{}).
		Where("id = ?", responseID).
		Update("response_text", text)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *responseRepository) ListResponses(ctx context.Context, questionIDs []string) ([]model.Response, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var responses []model.Response
	err := r.db.WithContext(ctx).Where("question_id IN ?", questionIDs).Find(&responses).Error
	return responses, err
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) UpsertFeedback(ctx context.Context, feedback *model.Feedback) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Feedback
		err := tx.Where("response_id = ?", feedback.ResponseID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if feedback.ID == "" {
				feedback.ID = uuid.NewString()
			}
			return tx.Create(feedback).Error
		}
		if err != nil {
			return err
		}

		feedback.ID = existing.ID
		feedback.CreatedAt = existing.CreatedAt
		return tx.Model(&model.Feedback{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"feedback_text":     feedback.FeedbackText,
				"improvement_areas": feedback.ImprovementAreas,
				"strengths":         feedback.Strengths,
				"confidence_score":  feedback.ConfidenceScore,
			}).Error
	})
}

func (r *feedbackRepository) GetFeedbackByResponse(ctx context.Context, responseID string) (*model.Feedback, error) {
	var feedback model.Feedback
	err := r.db.WithContext(ctx).Where("response_id = ?", responseID).First(&feedback).Error
	if err != nil {
		return nil, translate(err)
	}
	return &feedback, nil
}

func (r *feedbackRepository) DeleteFeedbackByResponse(ctx context.Context, responseID string) error {
	return r.db.WithContext(ctx).Where("response_id = ?", responseID).Delete(&model.Feedback{}).Error
}

func (r *feedbackRepository) ListFeedback(ctx context.Context, responseIDs []string) ([]model.Feedback, error) {
	if len(responseIDs) == 0 {
		return nil, nil
	}
	var feedback []model.Feedback
	err := r.db.WithContext(ctx).Where("response_id IN ?", responseIDs).Find(&feedback).Error
	return feedback, err
}
