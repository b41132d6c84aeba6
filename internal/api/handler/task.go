package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tranqh/formintake/internal/domain"
	"github.com/tranqh/formintake/internal/queue"
)

// TaskHandler handles the job-status polling endpoint.
type TaskHandler struct {
	queue *queue.Queue
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(q *queue.Queue) *TaskHandler {
	return &TaskHandler{queue: q}
}

// Status handles GET /tasks/:task_id. Expired and unknown jobs look the
// same: both report PENDING, matching what a client polling after the
// retention window expects to tolerate.
func (h *TaskHandler) Status(c *gin.Context) {
	id := c.Param("task_id")

	job, err := h.queue.Poll(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusOK, gin.H{"task_id": id, "state": string(domain.JobStatePending)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	resp := gin.H{"task_id": id, "state": string(job.State)}
	switch job.State {
	case domain.JobStateSuccess:
		resp["result"] = json.RawMessage(job.Result)
	case domain.JobStateFailure:
		resp["error"] = job.Error
	}
	c.JSON(http.StatusOK, resp)
}
