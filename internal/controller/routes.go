package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mockinterview-backend/internal/metrics"
	"mockinterview-backend/internal/service"
	"mockinterview-backend/utilities"
)

// Dependencies are the services the HTTP layer talks to.
type Dependencies struct {
	Interviews service.InterviewService
	Results    service.ResultsService
	Tokens     *utilities.SessionToken
	PageSize   int
	// StaticDir is served under /static when set.
	StaticDir string
}

// RegisterRoutes registers all route groups and their endpoints.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	interviewCtrl := NewInterviewController(deps.Interviews, deps.Tokens, deps.PageSize)
	resultsCtrl := NewResultsController(deps.Results)

	interviewRoutes := r.Group("/interviews")
	{
		interviewRoutes.POST("", interviewCtrl.CreateInterview)
		interviewRoutes.GET("", interviewCtrl.ListInterviews)
		interviewRoutes.GET("/:id", interviewCtrl.GetInterview)
		interviewRoutes.GET("/:id/resume", interviewCtrl.ResumeInterview)
		interviewRoutes.POST("/:id/advance", interviewCtrl.Advance)
		interviewRoutes.POST("/:id/abandon", interviewCtrl.AbandonInterview)
		interviewRoutes.GET("/:id/results", resultsCtrl.GetResults)
		interviewRoutes.GET("/:id/report", resultsCtrl.DownloadReport)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if deps.StaticDir != "" {
		r.StaticFS("/static", http.Dir(deps.StaticDir))
	}
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, utilities.ErrInvalidSessionToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrStepInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		utilities.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error, please retry"})
	}
}
