package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mockinterview-backend/internal/metrics"
	"mockinterview-backend/internal/model"
	"mockinterview-backend/internal/questions"
	"mockinterview-backend/internal/repository"
	"mockinterview-backend/utilities"
)

// Repositories groups the persistence ports the services share.
type Repositories struct {
	Interviews repository.InterviewRepository
	Responses  repository.ResponseRepository
	Feedback   repository.FeedbackRepository
}

// NewMemoryRepositories backs all three ports with one MemoryStore.
func NewMemoryRepositories(store *repository.MemoryStore) Repositories {
	return Repositories{Interviews: store, Responses: store, Feedback: store}
}

type SetupRequest struct {
	Title         string           `json:"title"`
	JobRole       string           `json:"job_role"`
	Industry      string           `json:"industry"`
	Difficulty    model.Difficulty `json:"difficulty"`
	QuestionCount int              `json:"question_count"`
}

type AdvanceRequest struct {
	InterviewID  string
	Index        int
	ResponseType model.ResponseType
	Payload      Payload
}

type AdvanceResult struct {
	Interview *model.Interview `json:"interview"`
	Response  *model.Response  `json:"response"`
	Feedback  *model.Feedback  `json:"feedback,omitempty"`
	Completed bool             `json:"completed"`
	// NextIndex is the cursor after this step; it stays on the last
	// question once the interview completes.
	NextIndex int `json:"next_index"`
}

// Session is everything a client needs to continue an interview.
type Session struct {
	Interview *model.Interview `json:"interview"`
	Questions []model.Question `json:"questions"`
	Responses []model.Response `json:"responses"`
	Cursor    int              `json:"cursor"`
}

// InterviewService drives the interview state machine: creation, one step per
// answered question, completion, abandonment and resumption.
type InterviewService interface {
	CreateInterview(ctx context.Context, req SetupRequest) (*model.Interview, []model.Question, error)
	Advance(ctx context.Context, req AdvanceRequest) (*AdvanceResult, error)
	Resume(ctx context.Context, id string) (*Session, error)
	Abandon(ctx context.Context, id string) (*model.Interview, error)
	GetInterview(ctx context.Context, id string) (*model.Interview, []model.Question, error)
	ListInterviews(ctx context.Context, page, pageSize int) ([]model.Interview, error)
}

type interviewService struct {
	repos        Repositories
	generator    *questions.Generator
	capture      CaptureService
	synth        FeedbackService
	guard        StepGuard
	events       *utilities.EventBus
	defaultCount int
	now          func() time.Time
	newRand      func() *rand.Rand
}

func NewInterviewService(repos Repositories, generator *questions.Generator, capture CaptureService, synth FeedbackService, guard StepGuard, events *utilities.EventBus, defaultCount int) InterviewService {
	if guard == nil {
		guard = NewLocalStepGuard()
	}
	if defaultCount < 1 {
		defaultCount = questions.MaxQuestions
	}
	return &interviewService{
		repos:        repos,
		generator:    generator,
		capture:      capture,
		synth:        synth,
		guard:        guard,
		events:       events,
		defaultCount: defaultCount,
		now:          time.Now,
		newRand:      func() *rand.Rand { return nil },
	}
}

// CreateInterview generates questions and stores the interview with all of
// them in one transaction.
func (s *interviewService) CreateInterview(ctx context.Context, req SetupRequest) (*model.Interview, []model.Question, error) {
	req.JobRole = strings.TrimSpace(req.JobRole)
	if req.JobRole == "" {
		return nil, nil, fmt.Errorf("%w: job role is required", ErrValidation)
	}
	if !req.Difficulty.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown difficulty %q", ErrValidation, req.Difficulty)
	}
	if req.QuestionCount < 0 {
		return nil, nil, fmt.Errorf("%w: question count must not be negative", ErrValidation)
	}
	count := req.QuestionCount
	if count == 0 {
		count = s.defaultCount
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.JobRole + " Interview"
	}
	interview := &model.Interview{
		ID:       uuid.NewString(),
		Title:    title,
		JobRole:  req.JobRole,
		Industry: model.StringPtr(strings.TrimSpace(req.Industry)),
		Status:   model.StatusInProgress,
	}
	if req.Difficulty != "" {
		d := req.Difficulty
		interview.Difficulty = &d
	}

	generated := s.generator.Generate(req.JobRole, req.Industry, req.Difficulty, count, s.newRand())
	qs := make([]model.Question, len(generated))
	for i, g := range generated {
		qType := g.Type
		qs[i] = model.Question{
			ID:           uuid.NewString(),
			InterviewID:  interview.ID,
			QuestionText: g.Text,
			QuestionType: &qType,
			OrderNumber:  i + 1,
		}
	}

	if err := s.repos.Interviews.CreateWithQuestions(ctx, interview, qs); err != nil {
		return nil, nil, fmt.Errorf("create interview: %w", err)
	}
	metrics.InterviewsCreated.Inc()
	utilities.Info("Created interview %s (%s, %d questions)", interview.ID, interview.JobRole, len(qs))
	return interview, qs, nil
}

// Advance answers the question at req.Index: capture, transcribe when needed,
// analyze, persist feedback, then move the cursor or complete the interview.
func (s *interviewService) Advance(ctx context.Context, req AdvanceRequest) (*AdvanceResult, error) {
	start := s.now()
	result, err := s.advance(ctx, req)

	outcome := "advanced"
	switch {
	case errors.Is(err, ErrStepInProgress):
		outcome = "busy"
	case err != nil:
		outcome = "failed"
	case result.Completed:
		outcome = "completed"
	}
	metrics.StepsTotal.WithLabelValues(outcome).Inc()
	label := string(req.ResponseType)
	if !req.ResponseType.Valid() {
		label = "invalid"
	}
	metrics.StepDuration.WithLabelValues(label).Observe(s.now().Sub(start).Seconds())
	return result, err
}

func (s *interviewService) advance(ctx context.Context, req AdvanceRequest) (*AdvanceResult, error) {
	if err := ValidatePayload(req.ResponseType, req.Payload); err != nil {
		return nil, err
	}
	if req.Index < 0 {
		return nil, fmt.Errorf("%w: question index must not be negative", ErrValidation)
	}

	// The step runs to completion even if the caller goes away; every write
	// in it is an upsert, so a retried step is harmless.
	ctx = context.WithoutCancel(ctx)

	release, err := s.guard.Acquire(ctx, req.InterviewID)
	if err != nil {
		return nil, err
	}
	defer release()

	interview, err := loadInterview(ctx, s.repos.Interviews, req.InterviewID)
	if err != nil {
		return nil, err
	}
	if interview.Status.Terminal() {
		return nil, fmt.Errorf("%w: interview is %s", ErrInvalidState, interview.Status)
	}

	qs, err := s.repos.Interviews.GetQuestions(ctx, interview.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if req.Index >= len(qs) {
		return nil, fmt.Errorf("%w: question index %d out of range (0..%d)", ErrValidation, req.Index, len(qs)-1)
	}
	question := qs[req.Index]

	resp, err := s.capture.Submit(ctx, question.ID, req.ResponseType, req.Payload)
	if err != nil {
		return nil, err
	}

	if resp.ResponseType.IsMedia() && resp.ResponseText == nil && resp.MediaURL != nil {
		if text := s.synth.Transcribe(ctx, *resp.MediaURL, resp.ResponseType); text != "" {
			if err := s.repos.Responses.UpdateResponseText(ctx, resp.ID, text); err != nil {
				return nil, fmt.Errorf("save transcription: %w", err)
			}
			resp.ResponseText = &text
		}
	}

	var feedback *model.Feedback
	if text := resp.AnalyzableText(); text != "" {
		analysis := s.synth.Analyze(ctx, question.QuestionText, text, resp.ResponseType, interview.JobRole)
		feedback = &model.Feedback{
			ResponseID:       resp.ID,
			FeedbackText:     analysis.FeedbackText,
			Strengths:        pq.StringArray(analysis.Strengths),
			ImprovementAreas: pq.StringArray(analysis.ImprovementAreas),
			ConfidenceScore:  analysis.ConfidenceScore,
		}
		if err := s.repos.Feedback.UpsertFeedback(ctx, feedback); err != nil {
			return nil, fmt.Errorf("save feedback: %w", err)
		}
	} else if err := s.repos.Feedback.DeleteFeedbackByResponse(ctx, resp.ID); err != nil {
		// A re-answer without text must not keep the previous answer's feedback.
		return nil, fmt.Errorf("clear feedback: %w", err)
	}

	result := &AdvanceResult{Interview: interview, Response: resp, Feedback: feedback, NextIndex: req.Index + 1}
	if req.Index < len(qs)-1 {
		return result, nil
	}

	completedAt := s.now()
	if err := s.repos.Interviews.MarkCompleted(ctx, interview.ID, completedAt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: interview is no longer in progress", ErrInvalidState)
		}
		return nil, fmt.Errorf("complete interview: %w", err)
	}
	interview.Status = model.StatusCompleted
	interview.CompletedAt = &completedAt
	result.Completed = true
	result.NextIndex = req.Index

	utilities.Info("Interview %s completed", interview.ID)
	if s.events != nil {
		s.events.Publish(utilities.InterviewCompletedEvent, interview.ID)
	}
	return result, nil
}

// Resume reloads an interview and places the cursor on the first unanswered
// question.
func (s *interviewService) Resume(ctx context.Context, id string) (*Session, error) {
	interview, err := loadInterview(ctx, s.repos.Interviews, id)
	if err != nil {
		return nil, err
	}
	qs, err := s.repos.Interviews.GetQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	responses, err := s.repos.Responses.ListResponses(ctx, questionIDs(qs))
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	if responses == nil {
		responses = []model.Response{}
	}
	return &Session{
		Interview: interview,
		Questions: qs,
		Responses: responses,
		Cursor:    ResumeCursor(qs, responses),
	}, nil
}

// ResumeCursor is the index of the first question without a response, 0 when
// nothing is answered, and the last index when everything is.
func ResumeCursor(qs []model.Question, responses []model.Response) int {
	if len(qs) == 0 || len(responses) == 0 {
		return 0
	}
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}
	for i, q := range qs {
		if !answered[q.ID] {
			return i
		}
	}
	return len(qs) - 1
}

// Abandon ends an in-progress interview without completing it.
func (s *interviewService) Abandon(ctx context.Context, id string) (*model.Interview, error) {
	release, err := s.guard.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	interview, err := loadInterview(ctx, s.repos.Interviews, id)
	if err != nil {
		return nil, err
	}
	if interview.Status.Terminal() {
		return nil, fmt.Errorf("%w: interview is %s", ErrInvalidState, interview.Status)
	}
	if err := s.repos.Interviews.MarkAbandoned(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: interview is no longer in progress", ErrInvalidState)
		}
		return nil, fmt.Errorf("abandon interview: %w", err)
	}
	interview.Status = model.StatusAbandoned
	utilities.Info("Interview %s abandoned", id)
	return interview, nil
}

func (s *interviewService) GetInterview(ctx context.Context, id string) (*model.Interview, []model.Question, error) {
	interview, err := loadInterview(ctx, s.repos.Interviews, id)
	if err != nil {
		return nil, nil, err
	}
	qs, err := s.repos.Interviews.GetQuestions(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load questions: %w", err)
	}
	return interview, qs, nil
}

// ListInterviews returns one page of interviews, newest first. Pages start at 1.
func (s *interviewService) ListInterviews(ctx context.Context, page, pageSize int) ([]model.Interview, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	interviews, err := s.repos.Interviews.ListInterviews(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	if interviews == nil {
		interviews = []model.Interview{}
	}
	return interviews, nil
}

func loadInterview(ctx context.Context, repo repository.InterviewRepository, id string) (*model.Interview, error) {
	interview, err := repo.GetInterview(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: interview %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load interview: %w", err)
	}
	return interview, nil
}

func questionIDs(qs []model.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
