package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mockinterview-backend/internal/config"
	"mockinterview-backend/internal/model"
)

var ErrMalformedOutput = errors.New("malformed generation output")

// Analysis is the structured evaluation of one answer.
type Analysis struct {
	FeedbackText     string   `json:"feedback_text"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	ConfidenceScore  *float64 `json:"confidence_score"`
}

type AnalysisRequest struct {
	Question     string
	Response     string
	ResponseType model.ResponseType
	JobRole      string
}

type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, mediaURL string, mediaType model.ResponseType) (string, error)
}

// Backend is a generation provider able to evaluate answers and transcribe media.
type Backend interface {
	Analyzer
	Transcriber
}

type composite struct {
	Analyzer
	Transcriber
}

// Compose pairs an analyzer with a transcriber.
func Compose(a Analyzer, t Transcriber) Backend {
	return composite{Analyzer: a, Transcriber: t}
}

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg config.GenerationConfig) (Backend, error) {
	switch cfg.Provider {
	case "", "stub":
		return NewStubBackend(), nil
	case "ollama":
		return Compose(NewOllamaClient(cfg.OllamaURL, cfg.Model), NewSTTClient(cfg.STTURL)), nil
	case "gemini":
		gemini, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return Compose(gemini, NewSTTClient(cfg.STTURL)), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// BuildAnalysisPrompt asks the model for a single JSON object matching Analysis.
func BuildAnalysisPrompt(req AnalysisRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced interviewer hiring for the role of %s.\n", req.JobRole)
	fmt.Fprintf(&b, "Interview question: %s\n", req.Question)
	fmt.Fprintf(&b, "Candidate answer (%s): %s\n\n", req.ResponseType, req.Response)
	b.WriteString("Evaluate the answer. Respond with only a JSON object with the keys ")
	b.WriteString(`"feedback_text" (string, 2-4 sentences), "strengths" (array of short strings), `)
	b.WriteString(`"improvement_areas" (array of short strings) and "confidence_score" (number between 0 and 1).`)
	return b.String()
}

// ParseAnalysis extracts an Analysis from raw model output. Models often wrap
// JSON in prose or code fences, so the outermost object is located first.
func ParseAnalysis(raw string) (*Analysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedOutput)
	}

	var a Analysis
	if err := json.Unmarshal([]byte(raw[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	a.FeedbackText = strings.TrimSpace(a.FeedbackText)
	if a.FeedbackText == "" {
		return nil, fmt.Errorf("%w: empty feedback_text", ErrMalformedOutput)
	}
	if a.ConfidenceScore != nil && (*a.ConfidenceScore < 0 || *a.ConfidenceScore > 1) {
		return nil, fmt.Errorf("%w: confidence_score %v out of range", ErrMalformedOutput, *a.ConfidenceScore)
	}
	a.Strengths = compact(a.Strengths)
	a.ImprovementAreas = compact(a.ImprovementAreas)
	return &a, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
