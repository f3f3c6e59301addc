package controller

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mockinterview-backend/internal/model"
	"mockinterview-backend/internal/service"
	"mockinterview-backend/utilities"
)

// MaxMediaBytes caps a single recorded answer.
const MaxMediaBytes = 64 << 20

type InterviewController struct {
	InterviewService service.InterviewService
	Tokens           *utilities.SessionToken
	PageSize         int
}

func NewInterviewController(interviewService service.InterviewService, tokens *utilities.SessionToken, pageSize int) *InterviewController {
	return &InterviewController{InterviewService: interviewService, Tokens: tokens, PageSize: pageSize}
}

// CreateInterview handles POST /interviews
func (ic *InterviewController) CreateInterview(c *gin.Context) {
	var req service.SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	interview, questions, err := ic.InterviewService.CreateInterview(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := ic.Tokens.Issue(interview.ID, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"interview":     interview,
		"questions":     questions,
		"session_token": token,
	})
}

// ListInterviews handles GET /interviews?page=&page_size=
func (ic *InterviewController) ListInterviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(ic.PageSize)))
	interviews, err := ic.InterviewService.ListInterviews(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interviews)
}

// GetInterview handles GET /interviews/:id
func (ic *InterviewController) GetInterview(c *gin.Context) {
	interview, questions, err := ic.InterviewService.GetInterview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interview": interview, "questions": questions})
}

// ResumeInterview handles GET /interviews/:id/resume
func (ic *InterviewController) ResumeInterview(c *gin.Context) {
	session, err := ic.InterviewService.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := ic.Tokens.Issue(session.Interview.ID, session.Cursor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"interview":     session.Interview,
		"questions":     session.Questions,
		"responses":     session.Responses,
		"cursor":        session.Cursor,
		"session_token": token,
	})
}

type advanceInput struct {
	ResponseType model.ResponseType `json:"response_type" form:"response_type"`
	Text         string             `json:"text" form:"text"`
	SessionToken string             `json:"session_token" form:"session_token"`
	Index        *int               `json:"index" form:"index"`
}

// Advance handles POST /interviews/:id/advance. Text answers are sent as
// JSON; recordings as multipart with the file in the "media" field.
func (ic *InterviewController) Advance(c *gin.Context) {
	interviewID := c.Param("id")

	var input advanceInput
	var media *service.Media
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
		m, err := readMedia(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		media = m
	} else if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	index, err := ic.resolveIndex(interviewID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := ic.InterviewService.Advance(c.Request.Context(), service.AdvanceRequest{
		InterviewID:  interviewID,
		Index:        index,
		ResponseType: input.ResponseType,
		Payload:      service.Payload{Text: input.Text, Media: media},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"interview":  result.Interview,
		"response":   result.Response,
		"feedback":   result.Feedback,
		"completed":  result.Completed,
		"next_index": result.NextIndex,
	}
	if !result.Completed {
		token, err := ic.Tokens.Issue(interviewID, result.NextIndex)
		if err != nil {
			respondError(c, err)
			return
		}
		body["session_token"] = token
	}
	c.JSON(http.StatusOK, body)
}

// AbandonInterview handles POST /interviews/:id/abandon
func (ic *InterviewController) AbandonInterview(c *gin.Context) {
	interview, err := ic.InterviewService.Abandon(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interview)
}

// resolveIndex prefers the signed session token over a bare index.
func (ic *InterviewController) resolveIndex(interviewID string, input advanceInput) (int, error) {
	if input.SessionToken != "" {
		claims, err := ic.Tokens.Parse(input.SessionToken, interviewID)
		if err != nil {
			return 0, err
		}
		return claims.Index, nil
	}
	if input.Index != nil {
		return *input.Index, nil
	}
	return 0, fmt.Errorf("%w: session_token or index is required", service.ErrValidation)
}

func readMedia(c *gin.Context) (*service.Media, error) {
	header, err := c.FormFile("media")
	if err != nil {
		return nil, nil
	}
	if header.Size > MaxMediaBytes {
		return nil, fmt.Errorf("recording exceeds %d MB", MaxMediaBytes>>20)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("could not read recording")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read recording")
	}
	return &service.Media{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}, nil
}
