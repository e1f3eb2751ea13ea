package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/http/response"
	"github.com/yungbote/rikai-backend/internal/modules/learning/materialize"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/services"
)

type TaskHandler struct {
	log      *logger.Logger
	learning services.LearningService
}

func NewTaskHandler(log *logger.Logger, learning services.LearningService) *TaskHandler {
	return &TaskHandler{log: log.With("handler", "TaskHandler"), learning: learning}
}

type answerReq struct {
	Option *int `json:"option" binding:"required"`
}

// POST /api/curricula/:id/tasks/:taskId/select?wait=true
func (h *TaskHandler) Select(c *gin.Context) {
	view, ch, err := h.learning.SelectTask(c.Request.Context(), c.Param("id"), c.Param("taskId"))
	h.respondMaterialize(c, view, ch, err)
}

// POST /api/curricula/:id/tasks/:taskId/retry?wait=true
func (h *TaskHandler) Retry(c *gin.Context) {
	view, ch, err := h.learning.RetryContent(c.Request.Context(), c.Param("id"), c.Param("taskId"))
	h.respondMaterialize(c, view, ch, err)
}

// GET /api/curricula/:id/tasks/:taskId/content
func (h *TaskHandler) Content(c *gin.Context) {
	view, err := h.learning.TaskState(c.Request.Context(), c.Param("id"), c.Param("taskId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/curricula/:id/tasks/:taskId/answer
func (h *TaskHandler) Answer(c *gin.Context) {
	var req answerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ev, err := h.learning.AnswerQuiz(c.Request.Context(), c.Param("id"), c.Param("taskId"), *req.Option)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"evaluation": ev})
}

// POST /api/curricula/:id/tasks/:taskId/complete
//
// An incorrect answer is a 409 whose body still carries the evaluation, so the
// client can show the explanation and let the learner try again. On an already
// completed task any answer is a 200 evaluation.
func (h *TaskHandler) Complete(c *gin.Context) {
	var req answerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ev, cur, err := h.learning.CompleteTask(c.Request.Context(), c.Param("id"), c.Param("taskId"), *req.Option)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			ae := response.Classify(err)
			c.JSON(ae.Status, gin.H{
				"error":      response.APIError{Message: ae.Error(), Code: ae.Code},
				"evaluation": ev,
			})
			return
		}
		response.RespondErr(c, err)
		return
	}
	pct, _ := h.learning.Progress(c.Request.Context(), cur.ID)
	response.RespondOK(c, gin.H{"evaluation": ev, "curriculum": cur, "progress": pct})
}

// respondMaterialize answers immediately with the task view, or with wait=true
// blocks until the content request settles or the client goes away.
func (h *TaskHandler) respondMaterialize(c *gin.Context, view services.TaskView, ch <-chan materialize.Result, err error) {
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	wait, _ := strconv.ParseBool(c.Query("wait"))
	if !wait || ch == nil {
		c.JSON(http.StatusAccepted, view)
		return
	}
	select {
	case r := <-ch:
		if r.Outcome == materialize.OutcomeFailed {
			response.RespondErr(c, r.Err)
			return
		}
	case <-c.Request.Context().Done():
		if errors.Is(c.Request.Context().Err(), context.Canceled) {
			return
		}
	}
	view, err = h.learning.TaskState(c.Request.Context(), view.CurriculumID, view.Task.ID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, view)
}
