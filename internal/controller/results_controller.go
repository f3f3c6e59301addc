package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"mockinterview-backend/internal/service"
)

type ResultsController struct {
	ResultsService service.ResultsService
}

func NewResultsController(resultsService service.ResultsService) *ResultsController {
	return &ResultsController{ResultsService: resultsService}
}

// GetResults handles GET /interviews/:id/results
func (rc *ResultsController) GetResults(c *gin.Context) {
	results, err := rc.ResultsService.GetResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// DownloadReport handles GET /interviews/:id/report
func (rc *ResultsController) DownloadReport(c *gin.Context) {
	id := c.Param("id")
	report, err := rc.ResultsService.RenderReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=interview_%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", report)
}
