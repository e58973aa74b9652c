package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/queue"
)

type JobResponse struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

type QueueStatsResponse struct {
	Pending int `json:"pending"`
	Printed int `json:"printed"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

type JobHandler struct {
	jobs      *db.JobStore
	processor *queue.Processor
}

func NewJobHandler(jobs *db.JobStore, processor *queue.Processor) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		processor: processor,
	}
}

func jobToResponse(j *db.PrintJob) JobResponse {
	return JobResponse{
		ID:           j.ID,
		OrderID:      j.OrderID,
		Status:       j.Status,
		Attempts:     j.Attempts,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		ProcessedAt:  j.ProcessedAt,
	}
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", db.JobStatusPending, db.JobStatusPrinted, db.JobStatusFailed:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Unknown status filter",
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to list print jobs",
		})
		return
	}

	responses := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		responses = append(responses, jobToResponse(j))
	}

	c.JSON(http.StatusOK, responses)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Print job not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve print job",
		})
		return
	}
	c.JSON(http.StatusOK, jobToResponse(job))
}

// RetryJob puts a failed job back into the pending pool with a fresh attempt
// budget. Pending and printed jobs are rejected.
func (h *JobHandler) RetryJob(c *gin.Context) {
	if err := h.processor.RetryFailed(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "retry_rejected",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *JobHandler) QueueStats(c *gin.Context) {
	counts, err := h.jobs.CountByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to count print jobs",
		})
		return
	}
	c.JSON(http.StatusOK, QueueStatsResponse{
		Pending: counts.Pending,
		Printed: counts.Printed,
		Failed:  counts.Failed,
		Total:   counts.Total,
	})
}

// ProcessQueue runs one batch pass on demand, outside the poll schedule.
func (h *JobHandler) ProcessQueue(c *gin.Context) {
	report, err := h.processor.ProcessQueue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "queue_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

func RegisterJobRoutes(router *gin.RouterGroup, handler *JobHandler) {
	jobs := router.Group("/jobs")
	{
		jobs.GET("", handler.ListJobs)
		jobs.GET("/:id", handler.GetJob)
		jobs.POST("/:id/retry", handler.RetryJob)
	}
	q := router.Group("/queue")
	{
		q.GET("/stats", handler.QueueStats)
		q.POST("/process", handler.ProcessQueue)
	}
}
