package service

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"

	"mockinterview-backend/internal/metrics"
	"mockinterview-backend/internal/model"
	"mockinterview-backend/internal/storage"
	"mockinterview-backend/utilities"
)

// Summary aggregates the feedback of one interview.
type Summary struct {
	OverallScore     int      `json:"overall_score"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	AnsweredCount    int      `json:"answered_count"`
	QuestionCount    int      `json:"question_count"`
}

// Summarize averages the present confidence scores on a 0-100 scale (0 when
// none exist) and unions strengths and improvement areas without duplicates.
func Summarize(results []model.QuestionResult) Summary {
	summary := Summary{
		Strengths:        []string{},
		ImprovementAreas: []string{},
		QuestionCount:    len(results),
	}
	seenStrength := make(map[string]bool)
	seenImprovement := make(map[string]bool)

	var total float64
	var scored int
	for _, r := range results {
		if r.Response != nil {
			summary.AnsweredCount++
		}
		if r.Feedback == nil {
			continue
		}
		if r.Feedback.ConfidenceScore != nil {
			total += *r.Feedback.ConfidenceScore
			scored++
		}
		for _, s := range r.Feedback.Strengths {
			if !seenStrength[s] {
				seenStrength[s] = true
				summary.Strengths = append(summary.Strengths, s)
			}
		}
		for _, s := range r.Feedback.ImprovementAreas {
			if !seenImprovement[s] {
				seenImprovement[s] = true
				summary.ImprovementAreas = append(summary.ImprovementAreas, s)
			}
		}
	}
	if scored > 0 {
		summary.OverallScore = int(math.Round(total / float64(scored) * 100))
	}
	return summary
}

type Results struct {
	Interview *model.Interview       `json:"interview"`
	Summary   Summary                `json:"summary"`
	Questions []model.QuestionResult `json:"questions"`
}

// ResultsService reads persisted interviews back as results and reports.
type ResultsService interface {
	GetResults(ctx context.Context, id string) (*Results, error)
	RenderReport(ctx context.Context, id string) ([]byte, error)
	StoreReport(ctx context.Context, id string) (string, error)
}

type resultsService struct {
	repos Repositories
	store storage.ObjectStore
}

func NewResultsService(repos Repositories, store storage.ObjectStore) ResultsService {
	return &resultsService{repos: repos, store: store}
}

func (s *resultsService) GetResults(ctx context.Context, id string) (*Results, error) {
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
	responseIDs := make([]string, len(responses))
	byQuestion := make(map[string]*model.Response, len(responses))
	for i := range responses {
		responseIDs[i] = responses[i].ID
		byQuestion[responses[i].QuestionID] = &responses[i]
	}
	feedback, err := s.repos.Feedback.ListFeedback(ctx, responseIDs)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	byResponse := make(map[string]*model.Feedback, len(feedback))
	for i := range feedback {
		byResponse[feedback[i].ResponseID] = &feedback[i]
	}

	detail := make([]model.QuestionResult, len(qs))
	for i, q := range qs {
		detail[i] = model.QuestionResult{Question: q}
		if resp, ok := byQuestion[q.ID]; ok {
			detail[i].Response = resp
			detail[i].Feedback = byResponse[resp.ID]
		}
	}
	return &Results{Interview: interview, Summary: Summarize(detail), Questions: detail}, nil
}

// RenderReport lays the results out as a PDF document.
func (s *resultsService) RenderReport(ctx context.Context, id string) ([]byte, error) {
	results, err := s.GetResults(ctx, id)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(results.Interview.Title), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 10, tr(results.Interview.Title), "", "L", false)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Role: %s    Status: %s", results.Interview.JobRole, results.Interview.Status)))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Overall score: %d / 100    Answered: %d of %d",
		results.Summary.OverallScore, results.Summary.AnsweredCount, results.Summary.QuestionCount))
	pdf.Ln(10)

	writeList(pdf, tr, "Strengths", results.Summary.Strengths)
	writeList(pdf, tr, "Areas to improve", results.Summary.ImprovementAreas)

	for _, qr := range results.Questions {
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%d. %s", qr.Question.OrderNumber, qr.Question.QuestionText)), "", "L", false)
		pdf.SetFont("Arial", "", 11)
		switch {
		case qr.Response == nil:
			pdf.MultiCell(0, 6, "Not answered.", "", "L", false)
		case qr.Response.AnalyzableText() != "":
			pdf.MultiCell(0, 6, tr("Answer: "+qr.Response.AnalyzableText()), "", "L", false)
		default:
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("Answer: %s recording", qr.Response.ResponseType)), "", "L", false)
		}
		if qr.Feedback != nil {
			pdf.SetFont("Arial", "I", 11)
			pdf.MultiCell(0, 6, tr("Feedback: "+qr.Feedback.FeedbackText), "", "L", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeList(pdf *gofpdf.Fpdf, tr func(string) string, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 7, heading)
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	for _, item := range items {
		pdf.MultiCell(0, 6, tr("- "+item), "", "L", false)
	}
	pdf.Ln(3)
}

// StoreReport renders the report and uploads it, returning its URL.
func (s *resultsService) StoreReport(ctx context.Context, id string) (string, error) {
	report, err := s.RenderReport(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.Upload(ctx, storage.ReportKey(id), bytes.NewReader(report), int64(len(report)), "application/pdf")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("report", "failed").Inc()
		return "", fmt.Errorf("upload report: %w", err)
	}
	metrics.UploadsTotal.WithLabelValues("report", "ok").Inc()
	return url, nil
}

// InitReportEventListeners stores a report for every completed interview.
func InitReportEventListeners(bus *utilities.EventBus, results ResultsService) {
	bus.Subscribe(utilities.InterviewCompletedEvent, func(data interface{}) {
		interviewID, ok := data.(string)
		if !ok {
			utilities.Error("Invalid interview ID received for report generation: %v", data)
			return
		}
		url, err := results.StoreReport(context.Background(), interviewID)
		if err != nil {
			utilities.Error("Error generating report for interview %s: %v", interviewID, err)
			return
		}
		utilities.Info("Report for interview %s stored at %s", interviewID, url)
	})
}
