package llm

import (
	"context"

	"mockinterview-backend/internal/model"
)

const (
	stubFeedback   = "Good response. You addressed the question directly; adding concrete examples would make it stronger."
	stubTranscript = "Transcription is not available for this response."
	stubConfidence = 0.75
)

// StubBackend returns a fixed canned result. It is the default provider and
// needs no network access.
type StubBackend struct{}

func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

func (StubBackend) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	score := stubConfidence
	return &Analysis{
		FeedbackText:     stubFeedback,
		Strengths:        []string{"Clear communication", "Relevant experience"},
		ImprovementAreas: []string{"Add specific examples", "Quantify your impact"},
		ConfidenceScore:  &score,
	}, nil
}

func (StubBackend) Transcribe(ctx context.Context, mediaURL string, mediaType model.ResponseType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return stubTranscript, nil
}
