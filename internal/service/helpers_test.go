package service

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"mockinterview-backend/internal/llm"
	"mockinterview-backend/internal/model"
	"mockinterview-backend/internal/questions"
	"mockinterview-backend/internal/repository"
	"mockinterview-backend/internal/storage"
	"mockinterview-backend/utilities"
)

var errBoom = errors.New("boom")

// fakeBackend is a scriptable generation backend.
type fakeBackend struct {
	analysis      *llm.Analysis
	analyzeErr    error
	transcript    string
	transcribeErr error
	block         bool
	analyzeCalls  int32
	transcribes   int32
}

func (f *fakeBackend) Analyze(ctx context.Context, req llm.AnalysisRequest) (*llm.Analysis, error) {
	atomic.AddInt32(&f.analyzeCalls, 1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	a := *f.analysis
	return &a, nil
}

func (f *fakeBackend) Transcribe(ctx context.Context, mediaURL string, mediaType model.ResponseType) (string, error) {
	atomic.AddInt32(&f.transcribes, 1)
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return f.transcript, nil
}

func scored(text string, score float64, strengths, improvements []string) *llm.Analysis {
	return &llm.Analysis{FeedbackText: text, Strengths: strengths, ImprovementAreas: improvements, ConfidenceScore: &score}
}

// failingStore rejects every upload.
type failingStore struct{}

func (failingStore) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errBoom
}

// flakyInterviews fails selected operations of an otherwise working store.
type flakyInterviews struct {
	*repository.MemoryStore
	failCreate   bool
	failComplete bool
}

func (f *flakyInterviews) CreateWithQuestions(ctx context.Context, interview *model.Interview, qs []model.Question) error {
	if f.failCreate {
		return errBoom
	}
	return f.MemoryStore.CreateWithQuestions(ctx, interview, qs)
}

func (f *flakyInterviews) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	if f.failComplete {
		return errBoom
	}
	return f.MemoryStore.MarkCompleted(ctx, id, at)
}

type testEnv struct {
	mem        *repository.MemoryStore
	interviews *flakyInterviews
	repos      Repositories
	dir        string
	local      *storage.LocalStore
	backend    *fakeBackend
	bus        *utilities.EventBus
	guard      *LocalStepGuard
	svc        InterviewService
	results    ResultsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, nil)
}

func newTestEnvWithStore(t *testing.T, store storage.ObjectStore) *testEnv {
	t.Helper()
	env := &testEnv{
		mem:     repository.NewMemoryStore(),
		dir:     t.TempDir(),
		backend: &fakeBackend{analysis: scored("Nice answer.", 0.8, []string{"clarity"}, []string{"depth"}), transcript: "spoken answer"},
		bus:     utilities.NewEventBus(),
		guard:   NewLocalStepGuard(),
	}
	env.interviews = &flakyInterviews{MemoryStore: env.mem}
	env.repos = Repositories{Interviews: env.interviews, Responses: env.mem, Feedback: env.mem}

	local, err := storage.NewLocalStore(env.dir, "http://test/static")
	if err != nil {
		t.Fatal(err)
	}
	env.local = local
	if store == nil {
		store = local
	}

	bank, err := questions.DefaultBank()
	if err != nil {
		t.Fatal(err)
	}
	capture := NewCaptureService(env.repos.Interviews, env.repos.Responses, store)
	synth := NewFeedbackService(env.backend, time.Second, 0)
	env.svc = NewInterviewService(env.repos, questions.NewGenerator(bank), capture, synth, env.guard, env.bus, 7)
	env.results = NewResultsService(env.repos, local)
	return env
}

func (env *testEnv) create(t *testing.T, n int) (*model.Interview, []model.Question) {
	t.Helper()
	interview, qs, err := env.svc.CreateInterview(context.Background(), SetupRequest{JobRole: "Software Engineer", QuestionCount: n})
	if err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	if len(qs) != n {
		t.Fatalf("expected %d questions, got %d", n, len(qs))
	}
	return interview, qs
}

func textAnswer(interviewID string, index int, text string) AdvanceRequest {
	return AdvanceRequest{InterviewID: interviewID, Index: index, ResponseType: model.ResponseText, Payload: Payload{Text: text}}
}

func audioAnswer(interviewID string, index int) AdvanceRequest {
	return AdvanceRequest{
		InterviewID:  interviewID,
		Index:        index,
		ResponseType: model.ResponseAudio,
		Payload:      Payload{Media: &Media{Data: []byte("RIFF....WAVE"), ContentType: "audio/wav", Filename: "a.wav"}},
	}
}
