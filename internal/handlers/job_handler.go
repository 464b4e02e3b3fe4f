package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobSvc}
}

// Status returns the worker counters
// @Summary Background job status
// @Description Active, completed and failed jobs plus queue length (batch summaries, statement archiving, scheduled reminders)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} jobs.WorkerStats
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	respond(c, http.StatusOK, h.jobService.GetStatus())
}
