package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"mockinterview-backend/internal/metrics"
	"mockinterview-backend/internal/model"
	"mockinterview-backend/internal/repository"
	"mockinterview-backend/internal/storage"
)

// Media is a recorded answer as received from the client.
type Media struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Payload is the raw content of one answer. Text may accompany media as a
// client-side transcript.
type Payload struct {
	Text  string
	Media *Media
}

// ValidatePayload rejects answers that carry no usable content.
func ValidatePayload(responseType model.ResponseType, p Payload) error {
	if !responseType.Valid() {
		return fmt.Errorf("%w: unknown response type %q", ErrValidation, responseType)
	}
	if responseType.IsMedia() {
		if p.Media == nil || len(p.Media.Data) == 0 {
			return fmt.Errorf("%w: %s response requires a recording", ErrValidation, responseType)
		}
		return nil
	}
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: text response must not be empty", ErrValidation)
	}
	return nil
}

// CaptureService persists answers, uploading recordings to the object store.
type CaptureService interface {
	Submit(ctx context.Context, questionID string, responseType model.ResponseType, p Payload) (*model.Response, error)
}

type captureService struct {
	interviews repository.InterviewRepository
	responses  repository.ResponseRepository
	store      storage.ObjectStore
}

func NewCaptureService(interviews repository.InterviewRepository, responses repository.ResponseRepository, store storage.ObjectStore) CaptureService {
	return &captureService{interviews: interviews, responses: responses, store: store}
}

// Submit validates, uploads media if any, and upserts the question's response.
func (s *captureService) Submit(ctx context.Context, questionID string, responseType model.ResponseType, p Payload) (*model.Response, error) {
	if err := ValidatePayload(responseType, p); err != nil {
		return nil, err
	}

	question, err := s.interviews.GetQuestion(ctx, questionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: question %s", ErrNotFound, questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}

	resp := &model.Response{
		QuestionID:   questionID,
		ResponseType: responseType,
		ResponseText: model.StringPtr(strings.TrimSpace(p.Text)),
	}
	if responseType.IsMedia() {
		url, err := s.upload(ctx, question, responseType, p.Media)
		if err != nil {
			return nil, err
		}
		resp.MediaURL = &url
	}

	if err := s.responses.UpsertResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	return resp, nil
}

func (s *captureService) upload(ctx context.Context, question *model.Question, responseType model.ResponseType, media *Media) (string, error) {
	head := media.Data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := storage.DetectContentType(media.ContentType, head)
	key := storage.MediaKey(question.InterviewID, question.ID, responseType, storage.Extension(media.Filename, contentType))

	url, err := s.store.Upload(ctx, key, bytes.NewReader(media.Data), int64(len(media.Data)), contentType)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("media", "failed").Inc()
		return "", fmt.Errorf("upload %s response: %w", responseType, err)
	}
	metrics.UploadsTotal.WithLabelValues("media", "ok").Inc()
	return url, nil
}
