package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"mockinterview-backend/internal/llm"
	"mockinterview-backend/internal/metrics"
	"mockinterview-backend/internal/model"
	"mockinterview-backend/utilities"
)

// DefaultTranscript is used when transcription fails. It is empty, so the
// response keeps no text and no feedback is recorded for it.
const DefaultTranscript = ""

// DefaultAnalysis is returned whenever the backend cannot produce a result.
// It carries no confidence score so it never skews the overall score.
func DefaultAnalysis() llm.Analysis {
	return llm.Analysis{
		FeedbackText:     "Automated feedback is unavailable right now. Your answer has been saved.",
		Strengths:        []string{},
		ImprovementAreas: []string{},
	}
}

// FeedbackService bounds and throttles calls to the generation backend and
// replaces every failure with a default result. It never returns an error.
type FeedbackService interface {
	Analyze(ctx context.Context, question, response string, responseType model.ResponseType, jobRole string) llm.Analysis
	Transcribe(ctx context.Context, mediaURL string, mediaType model.ResponseType) string
}

type feedbackService struct {
	backend llm.Backend
	timeout time.Duration
	limiter *rate.Limiter
}

func NewFeedbackService(backend llm.Backend, timeout time.Duration, requestsPerSecond float64) FeedbackService {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return &feedbackService{backend: backend, timeout: timeout, limiter: limiter}
}

func (s *feedbackService) Analyze(ctx context.Context, question, response string, responseType model.ResponseType, jobRole string) llm.Analysis {
	if strings.TrimSpace(response) == "" {
		return s.fallback("analyze", "empty answer")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return s.fallback("analyze", err.Error())
	}

	result, err := s.backend.Analyze(ctx, llm.AnalysisRequest{
		Question:     question,
		Response:     response,
		ResponseType: responseType,
		JobRole:      jobRole,
	})
	if err != nil {
		return s.fallback("analyze", err.Error())
	}
	if result == nil || strings.TrimSpace(result.FeedbackText) == "" {
		return s.fallback("analyze", "empty result")
	}
	if result.ConfidenceScore != nil && (*result.ConfidenceScore < 0 || *result.ConfidenceScore > 1) {
		return s.fallback("analyze", "confidence score out of range")
	}
	return *result
}

func (s *feedbackService) Transcribe(ctx context.Context, mediaURL string, mediaType model.ResponseType) string {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		s.countFallback("transcribe", err.Error())
		return DefaultTranscript
	}

	text, err := s.backend.Transcribe(ctx, mediaURL, mediaType)
	if err != nil {
		s.countFallback("transcribe", err.Error())
		return DefaultTranscript
	}
	return strings.TrimSpace(text)
}

func (s *feedbackService) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *feedbackService) fallback(op, reason string) llm.Analysis {
	s.countFallback(op, reason)
	return DefaultAnalysis()
}

func (s *feedbackService) countFallback(op, reason string) {
	metrics.GenerationFallbacks.WithLabelValues(op).Inc()
	utilities.Warn("%s fell back to default: %s", op, reason)
}
