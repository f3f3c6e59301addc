package model

import (
	"time"

	"github.com/lib/pq"
)

type InterviewStatus string

const (
	StatusInProgress InterviewStatus = "in_progress"
	StatusCompleted  InterviewStatus = "completed"
	StatusAbandoned  InterviewStatus = "abandoned"
)

// Terminal reports whether no further transitions are allowed.
func (s InterviewStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid accepts the three levels and the empty (unset) value.
func (d Difficulty) Valid() bool {
	switch d {
	case "", DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type QuestionType string

const (
	QuestionBehavioral  QuestionType = "behavioral"
	QuestionTechnical   QuestionType = "technical"
	QuestionSituational QuestionType = "situational"
	QuestionGeneral     QuestionType = "general"
)

type ResponseType string

const (
	ResponseText  ResponseType = "text"
	ResponseVideo ResponseType = "video"
	ResponseAudio ResponseType = "audio"
)

func (r ResponseType) Valid() bool {
	return r == ResponseText || r == ResponseVideo || r == ResponseAudio
}

// IsMedia reports whether the modality carries a binary payload.
func (r ResponseType) IsMedia() bool {
	return r == ResponseVideo || r == ResponseAudio
}

type Interview struct {
	ID          string          `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string          `json:"title" gorm:"not null"`
	JobRole     string          `json:"job_role" gorm:"not null"`
	Industry    *string         `json:"industry,omitempty"`
	Difficulty  *Difficulty     `json:"difficulty,omitempty"`
	Status      InterviewStatus `json:"status" gorm:"not null;default:'in_progress';index"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Questions   []Question      `json:"questions,omitempty" gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE"`
}

type Question struct {
	ID           string        `json:"id" gorm:"type:uuid;primaryKey"`
	InterviewID  string        `json:"interview_id" gorm:"type:uuid;not null;uniqueIndex:idx_question_order"`
	QuestionText string        `json:"question_text" gorm:"type:text;not null"`
	QuestionType *QuestionType `json:"question_type,omitempty"`
	OrderNumber  int           `json:"order_number" gorm:"not null;uniqueIndex:idx_question_order"`
	CreatedAt    time.Time     `json:"created_at"`
}

type Response struct {
	ID           string       `json:"id" gorm:"type:uuid;primaryKey"`
	QuestionID   string       `json:"question_id" gorm:"type:uuid;not null;uniqueIndex"`
	ResponseType ResponseType `json:"response_type" gorm:"not null"`
	ResponseText *string      `json:"response_text,omitempty" gorm:"type:text"`
	MediaURL     *string      `json:"media_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Question     *Question    `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// AnalyzableText returns the typed or transcribed text, or "" when none exists.
func (r *Response) AnalyzableText() string {
	if r == nil || r.ResponseText == nil {
		return ""
	}
	return *r.ResponseText
}

type Feedback struct {
	ID               string         `json:"id" gorm:"type:uuid;primaryKey"`
	ResponseID       string         `json:"response_id" gorm:"type:uuid;not null;uniqueIndex"`
	FeedbackText     string         `json:"feedback_text" gorm:"type:text;not null"`
	ImprovementAreas pq.StringArray `json:"improvement_areas" gorm:"type:text[]"`
	Strengths        pq.StringArray `json:"strengths" gorm:"type:text[]"`
	ConfidenceScore  *float64       `json:"confidence_score,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	Response         *Response      `json:"-" gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE"`
}

// QuestionResult bundles a question with its persisted answer and evaluation.
type QuestionResult struct {
	Question Question  `json:"question"`
	Response *Response `json:"response,omitempty"`
	Feedback *Feedback `json:"feedback,omitempty"`
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
