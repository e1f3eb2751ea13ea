package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/http/response"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/services"
)

type CurriculumHandler struct {
	log      *logger.Logger
	learning services.LearningService
}

func NewCurriculumHandler(log *logger.Logger, learning services.LearningService) *CurriculumHandler {
	return &CurriculumHandler{log: log.With("handler", "CurriculumHandler"), learning: learning}
}

type createCurriculumReq struct {
	Goal  string `json:"goal" binding:"required"`
	Level string `json:"level" binding:"required"`
}

// POST /api/curricula
func (h *CurriculumHandler) Create(c *gin.Context) {
	var req createCurriculumReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cur, err := h.learning.CreateCurriculum(c.Request.Context(), req.Goal, req.Level)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"curriculum": cur})
}

// GET /api/curricula?q=
func (h *CurriculumHandler) List(c *gin.Context) {
	out := h.learning.Search(c.Request.Context(), c.Query("q"))
	response.RespondOK(c, gin.H{"curricula": out})
}

// GET /api/curricula/:id
func (h *CurriculumHandler) Get(c *gin.Context) {
	cur, err := h.learning.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	pct, _ := h.learning.Progress(c.Request.Context(), cur.ID)
	response.RespondOK(c, gin.H{"curriculum": cur, "progress": pct})
}

// GET /api/stats
func (h *CurriculumHandler) Stats(c *gin.Context) {
	response.RespondOK(c, gin.H{"stats": h.learning.Stats(c.Request.Context())})
}
