package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"goal-tracker/internal/apperrors"
	"goal-tracker/internal/logger"
	"goal-tracker/internal/service"
)

// TaskOperations is what the handlers need from the task service.
type TaskOperations interface {
	List(ctx context.Context) (service.Overview, error)
	Confirm(ctx context.Context, taskID uint, answer string) (service.ConfirmResult, error)
	RecordValue(ctx context.Context, taskID uint, value float64) error
}

type confirmRequest struct {
	Answer string `json:"answer"`
}

type valueRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

// TaskHandler serves the task API.
type TaskHandler struct {
	tasks TaskOperations
	log   *logger.Logger
}

func NewTaskHandler(tasks TaskOperations, log *logger.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

// ListTasks returns today's date and the progress of every task.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	overview, err := h.tasks.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Confirm records today's yes/no answer for a confirm task.
func (h *TaskHandler) Confirm(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.tasks.Confirm(c.Request.Context(), id, req.Answer)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if res.AlreadyYes {
		c.JSON(http.StatusOK, gin.H{"ok": true, "already_yes": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RecordValue stores today's measurement for a number_diff task.
func (h *TaskHandler) RecordValue(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a number"})
		return
	}

	if err := h.tasks.RecordValue(c.Request.Context(), id, *req.Value); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func taskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return uint(id), true
}

func (h *TaskHandler) writeError(c *gin.Context, err error) {
	var (
		validation *apperrors.ValidationError
		notFound   *apperrors.NotFoundError
		conflict   *apperrors.ConflictError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &conflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
