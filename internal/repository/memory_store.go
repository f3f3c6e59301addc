package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mockinterview-backend/internal/model"
)

// MemoryStore keeps interviews, questions, responses and feedback in process memory.
// It satisfies the same repository interfaces as the gorm implementations and is
// used for local runs without postgres (DB driver "memory") and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	interviews map[string]model.Interview
	questions  map[string]model.Question
	responses  map[string]model.Response // keyed by question id
	feedback   map[string]model.Feedback // keyed by response id
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		interviews: make(map[string]model.Interview),
		questions:  make(map[string]model.Question),
		responses:  make(map[string]model.Response),
		feedback:   make(map[string]model.Feedback),
		now:        time.Now,
	}
}

func (s *MemoryStore) CreateWithQuestions(_ context.Context, interview *model.Interview, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}
	if _, exists := s.interviews[interview.ID]; exists {
		return fmt.Errorf("duplicate interview id %s", interview.ID)
	}
	seen := make(map[int]bool, len(questions))
	for i := range questions {
		if questions[i].InterviewID != interview.ID {
			return fmt.Errorf("question %d does not belong to interview %s", i, interview.ID)
		}
		if seen[questions[i].OrderNumber] {
			return fmt.Errorf("duplicate order number %d", questions[i].OrderNumber)
		}
		seen[questions[i].OrderNumber] = true
	}

	now := s.now()
	if interview.Status == "" {
		interview.Status = model.StatusInProgress
	}
	interview.CreatedAt = now
	stored := *interview
	stored.Questions = nil
	s.interviews[interview.ID] = stored

	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
		questions[i].CreatedAt = now
		s.questions[questions[i].ID] = questions[i]
	}
	return nil
}

func (s *MemoryStore) GetInterview(_ context.Context, id string) (*model.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	interview, ok := s.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &interview, nil
}

func (s *MemoryStore) ListInterviews(_ context.Context, limit, offset int) ([]model.Interview, error) {
	s.mu.RLock()
	all := make([]model.Interview, 0, len(s.interviews))
	for _, interview := range s.interviews {
		all = append(all, interview)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []model.Interview{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) GetQuestions(_ context.Context, interviewID string) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var questions []model.Question
	for _, q := range s.questions {
		if q.InterviewID == interviewID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].OrderNumber < questions[j].OrderNumber
	})
	return questions, nil
}

func (s *MemoryStore) GetQuestion(_ context.Context, id string) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (s *MemoryStore) MarkCompleted(_ context.Context, id string, at time.Time) error {
	return s.transition(id, func(i *model.Interview) {
		i.Status = model.StatusCompleted
		completedAt := at
		i.CompletedAt = &completedAt
	})
}

func (s *MemoryStore) MarkAbandoned(_ context.Context, id string) error {
	return s.transition(id, func(i *model.Interview) {
		i.Status = model.StatusAbandoned
	})
}

func (s *MemoryStore) transition(id string, apply func(*model.Interview)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	interview, ok := s.interviews[id]
	if !ok {
		return ErrNotFound
	}
	if interview.Status != model.StatusInProgress {
		return ErrConflict
	}
	apply(&interview)
	s.interviews[id] = interview
	return nil
}

func (s *MemoryStore) UpsertResponse(_ context.Context, resp *model.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[resp.QuestionID]; !ok {
		return fmt.Errorf("response references unknown question %s", resp.QuestionID)
	}
	if existing, ok := s.responses[resp.QuestionID]; ok {
		resp.ID = existing.ID
		resp.CreatedAt = existing.CreatedAt
	} else {
		if resp.ID == "" {
			resp.ID = uuid.NewString()
		}
		resp.CreatedAt = s.now()
	}
	stored := *resp
	stored.Question = nil
	s.responses[resp.QuestionID] = stored
	return nil
}

func (s *MemoryStore) GetResponseByQuestion(_ context.Context, questionID string) (*model.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[questionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &resp, nil
}

func (s *MemoryStore) UpdateResponseText(_ context.Context, responseID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for questionID, resp := range s.responses {
		if resp.ID == responseID {
			t := text
			resp.ResponseText = &t
			s.responses[questionID] = resp
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListResponses(_ context.Context, questionIDs []string) ([]model.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var responses []model.Response
	for _, id := range questionIDs {
		if resp, ok := s.responses[id]; ok {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

func (s *MemoryStore) UpsertFeedback(_ context.Context, feedback *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasResponse(feedback.ResponseID) {
		return fmt.Errorf("feedback references unknown response %s", feedback.ResponseID)
	}
	if existing, ok := s.feedback[feedback.ResponseID]; ok {
		feedback.ID = existing.ID
		feedback.CreatedAt = existing.CreatedAt
	} else {
		if feedback.ID == "" {
			feedback.ID = uuid.NewString()
		}
		feedback.CreatedAt = s.now()
	}
	stored := *feedback
	stored.Response = nil
	stored.Strengths = append([]string(nil), feedback.Strengths...)
	stored.ImprovementAreas = append([]string(nil), feedback.ImprovementAreas...)
	s.feedback[feedback.ResponseID] = stored
	return nil
}

func (s *MemoryStore) GetFeedbackByResponse(_ context.Context, responseID string) (*model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feedback, ok := s.feedback[responseID]
	if !ok {
		return nil, ErrNotFound
	}
	return &feedback, nil
}

func (s *MemoryStore) DeleteFeedbackByResponse(_ context.Context, responseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feedback, responseID)
	return nil
}

func (s *MemoryStore) ListFeedback(_ context.Context, responseIDs []string) ([]model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Feedback
	for _, id := range responseIDs {
		if feedback, ok := s.feedback[id]; ok {
			out = append(out, feedback)
		}
	}
	return out, nil
}

// Counts reports the number of stored rows per table.
func (s *MemoryStore) Counts() (interviews, questions, responses, feedback int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.interviews), len(s.questions), len(s.responses), len(s.feedback)
}

func (s *MemoryStore) hasResponse(responseID string) bool {
	for _, resp := range s.responses {
		if resp.ID == responseID {
			return true
		}
	}
	return false
}
