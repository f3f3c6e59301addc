package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"mockinterview-backend/internal/model"
)

func seedInterview(t *testing.T, store InterviewRepository, n int) (*model.Interview, []model.Question) {
	t.Helper()
	interview := &model.Interview{ID: uuid.NewString(), Title: "t", JobRole: "Software Engineer"}
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:           uuid.NewString(),
			InterviewID:  interview.ID,
			QuestionText: "question",
			OrderNumber:  n - i, // inserted out of order on purpose
		}
	}
	if err := store.CreateWithQuestions(context.Background(), interview, questions); err != nil {
		t.Fatalf("CreateWithQuestions: %v", err)
	}
	return interview, questions
}

func TestMemoryStoreQuestionsOrdered(t *testing.T) {
	store := NewMemoryStore()
	interview, _ := seedInterview(t, store, 4)

	questions, err := store.GetQuestions(context.Background(), interview.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.OrderNumber != i+1 {
			t.Errorf("position %d has order number %d", i, q.OrderNumber)
		}
	}
}

func TestMemoryStoreCreateIsAtomic(t *testing.T) {
	store := NewMemoryStore()
	interview := &model.Interview{ID: uuid.NewString(), JobRole: "x"}
	questions := []model.Question{
		{InterviewID: interview.ID, QuestionText: "a", OrderNumber: 1},
		{InterviewID: interview.ID, QuestionText: "b", OrderNumber: 1},
	}
	if err := store.CreateWithQuestions(context.Background(), interview, questions); err == nil {
		t.Fatal("expected duplicate order number error")
	}
	if _, err := store.GetInterview(context.Background(), interview.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("interview should not exist after failed create, got %v", err)
	}
	if i, q, _, _ := store.Counts(); i != 0 || q != 0 {
		t.Errorf("expected empty store, got %d interviews %d questions", i, q)
	}
}

func TestMemoryStoreResponseUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, questions := seedInterview(t, store, 1)
	qid := questions[0].ID

	first := &model.Response{QuestionID: qid, ResponseType: model.ResponseText, ResponseText: model.StringPtr("first")}
	if err := store.UpsertResponse(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &model.Response{QuestionID: qid, ResponseType: model.ResponseText, ResponseText: model.StringPtr("second")}
	if err := store.UpsertResponse(ctx, second); err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert should preserve id: %s != %s", second.ID, first.ID)
	}
	if _, _, responses, _ := store.Counts(); responses != 1 {
		t.Errorf("expected 1 response row, got %d", responses)
	}
	got, err := store.GetResponseByQuestion(ctx, qid)
	if err != nil {
		t.Fatal(err)
	}
	if got.AnalyzableText() != "second" {
		t.Errorf("expected latest content, got %q", got.AnalyzableText())
	}

	if err := store.UpsertResponse(ctx, &model.Response{QuestionID: "missing"}); err == nil {
		t.Error("expected error for orphan response")
	}
}

func TestMemoryStoreFeedbackUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, questions := seedInterview(t, store, 1)
	resp := &model.Response{QuestionID: questions[0].ID, ResponseType: model.ResponseText, ResponseText: model.StringPtr("a")}
	if err := store.UpsertResponse(ctx, resp); err != nil {
		t.Fatal(err)
	}

	for _, text := range []string{"one", "two"} {
		if err := store.UpsertFeedback(ctx, &model.Feedback{ResponseID: resp.ID, FeedbackText: text}); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, _, feedback := store.Counts(); feedback != 1 {
		t.Errorf("expected 1 feedback row, got %d", feedback)
	}
	got, err := store.GetFeedbackByResponse(ctx, resp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FeedbackText != "two" {
		t.Errorf("expected latest feedback, got %q", got.FeedbackText)
	}

	if err := store.DeleteFeedbackByResponse(ctx, resp.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetFeedbackByResponse(ctx, resp.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected feedback to be deleted, got %v", err)
	}
	if err := store.DeleteFeedbackByResponse(ctx, resp.ID); err != nil {
		t.Errorf("deleting absent feedback should succeed, got %v", err)
	}
}

func TestMemoryStoreTransitions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	interview, _ := seedInterview(t, store, 1)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.MarkCompleted(ctx, interview.ID, at); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetInterview(ctx, interview.ID)
	if got.Status != model.StatusCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(at) {
		t.Errorf("unexpected interview after completion: %+v", got)
	}

	if err := store.MarkCompleted(ctx, interview.ID, at); !errors.Is(err, ErrConflict) {
		t.Errorf("second completion should conflict, got %v", err)
	}
	if err := store.MarkAbandoned(ctx, interview.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("abandoning a completed interview should conflict, got %v", err)
	}
	if err := store.MarkAbandoned(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
