package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mockinterview-backend/internal/db"
	"mockinterview-backend/internal/model"
)

// openTestDB migrates a fresh file-backed SQLite database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "interviews.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}
	return database
}

func countRows(t *testing.T, database *gorm.DB, table interface{}) int64 {
	t.Helper()
	var n int64
	if err := database.Model(table).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func TestInterviewRepositoryCreateAndRead(t *testing.T) {
	ctx := context.Background()
	repo := NewInterviewRepository(openTestDB(t))
	interview, _ := seedInterview(t, repo, 3)

	got, err := repo.GetInterview(ctx, interview.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusInProgress || got.CompletedAt != nil {
		t.Errorf("unexpected stored interview %+v", got)
	}

	questions, err := repo.GetQuestions(ctx, interview.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.OrderNumber != i+1 {
			t.Errorf("position %d has order number %d", i, q.OrderNumber)
		}
	}

	if _, err := repo.GetInterview(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for interview, got %v", err)
	}
	if _, err := repo.GetQuestion(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for question, got %v", err)
	}
}

func TestInterviewRepositoryCreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	repo := NewInterviewRepository(database)

	interview := &model.Interview{ID: uuid.NewString(), Title: "t", JobRole: "x", Status: model.StatusInProgress}
	questions := []model.Question{
		{ID: uuid.NewString(), InterviewID: interview.ID, QuestionText: "a", OrderNumber: 1},
		{ID: uuid.NewString(), InterviewID: interview.ID, QuestionText: "b", OrderNumber: 1},
	}
	if err := repo.CreateWithQuestions(ctx, interview, questions); err == nil {
		t.Fatal("expected duplicate order number to fail")
	}
	if n := countRows(t, database, &model.Interview{}); n != 0 {
		t.Errorf("failed create left %d interviews", n)
	}
	if n := countRows(t, database, &model.Question{}); n != 0 {
		t.Errorf("failed create left %d questions", n)
	}
}

func TestInterviewRepositoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewInterviewRepository(openTestDB(t))
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		interview := &model.Interview{ID: uuid.NewString(), Title: "t", JobRole: "x", Status: model.StatusInProgress, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.CreateWithQuestions(ctx, interview, nil); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, interview.ID)
	}

	page, err := repo.ListInterviews(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != ids[2] || page[1].ID != ids[1] {
		t.Errorf("unexpected first page %+v", page)
	}
	page, _ = repo.ListInterviews(ctx, 2, 2)
	if len(page) != 1 || page[0].ID != ids[0] {
		t.Errorf("unexpected second page %+v", page)
	}
}

func TestInterviewRepositoryTransitions(t *testing.T) {
	ctx := context.Background()
	repo := NewInterviewRepository(openTestDB(t))
	completed, _ := seedInterview(t, repo, 1)
	abandoned, _ := seedInterview(t, repo, 1)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := repo.MarkCompleted(ctx, completed.ID, at); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetInterview(ctx, completed.ID)
	if got.Status != model.StatusCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(at) {
		t.Errorf("unexpected interview after completion: %+v", got)
	}
	if err := repo.MarkAbandoned(ctx, abandoned.ID); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"complete twice", func() error { return repo.MarkCompleted(ctx, completed.ID, at) }, ErrConflict},
		{"abandon completed", func() error { return repo.MarkAbandoned(ctx, completed.ID) }, ErrConflict},
		{"complete abandoned", func() error { return repo.MarkCompleted(ctx, abandoned.ID, at) }, ErrConflict},
		{"complete unknown", func() error { return repo.MarkCompleted(ctx, uuid.NewString(), at) }, ErrNotFound},
		{"abandon unknown", func() error { return repo.MarkAbandoned(ctx, uuid.NewString()) }, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	got, _ = repo.GetInterview(ctx, abandoned.ID)
	if got.Status != model.StatusAbandoned || got.CompletedAt != nil {
		t.Errorf("abandoned interview changed: %+v", got)
	}
}

func TestResponseRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	_, questions := seedInterview(t, NewInterviewRepository(database), 1)
	repo := NewResponseRepository(database)

	first := &model.Response{QuestionID: questions[0].ID, ResponseType: model.ResponseAudio, MediaURL: model.StringPtr("http://x/a.wav")}
	if err := repo.UpsertResponse(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateResponseText(ctx, first.ID, "transcribed"); err != nil {
		t.Fatal(err)
	}

	second := &model.Response{QuestionID: questions[0].ID, ResponseType: model.ResponseText, ResponseText: model.StringPtr("typed")}
	if err := repo.UpsertResponse(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert changed the response id: %s -> %s", first.ID, second.ID)
	}
	if n := countRows(t, database, &model.Response{}); n != 1 {
		t.Errorf("expected 1 response row, got %d", n)
	}

	got, err := repo.GetResponseByQuestion(ctx, questions[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResponseType != model.ResponseText || got.AnalyzableText() != "typed" || got.MediaURL != nil {
		t.Errorf("stored response not replaced: %+v", got)
	}

	listed, err := repo.ListResponses(ctx, []string{questions[0].ID, uuid.NewString()})
	if err != nil || len(listed) != 1 {
		t.Errorf("ListResponses: %d rows, err %v", len(listed), err)
	}
	if err := repo.UpdateResponseText(ctx, uuid.NewString(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFeedbackRepositoryUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	_, questions := seedInterview(t, NewInterviewRepository(database), 1)
	resp := &model.Response{QuestionID: questions[0].ID, ResponseType: model.ResponseText, ResponseText: model.StringPtr("a")}
	if err := NewResponseRepository(database).UpsertResponse(ctx, resp); err != nil {
		t.Fatal(err)
	}
	repo := NewFeedbackRepository(database)

	score := 0.6
	first := &model.Feedback{ResponseID: resp.ID, FeedbackText: "one", Strengths: []string{"clarity"}, ConfidenceScore: &score}
	if err := repo.UpsertFeedback(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &model.Feedback{ResponseID: resp.ID, FeedbackText: "two", Strengths: []string{"structure", "depth"}, ImprovementAreas: []string{"examples"}}
	if err := repo.UpsertFeedback(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert changed the feedback id: %s -> %s", first.ID, second.ID)
	}
	if n := countRows(t, database, &model.Feedback{}); n != 1 {
		t.Errorf("expected 1 feedback row, got %d", n)
	}

	got, err := repo.GetFeedbackByResponse(ctx, resp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FeedbackText != "two" || got.ConfidenceScore != nil {
		t.Errorf("stored feedback not replaced: %+v", got)
	}
	if len(got.Strengths) != 2 || got.Strengths[1] != "depth" || len(got.ImprovementAreas) != 1 {
		t.Errorf("lists not stored: %v / %v", got.Strengths, got.ImprovementAreas)
	}

	if err := repo.DeleteFeedbackByResponse(ctx, resp.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetFeedbackByResponse(ctx, resp.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteFeedbackByResponse(ctx, resp.ID); err != nil {
		t.Errorf("deleting absent feedback should succeed, got %v", err)
	}
}
