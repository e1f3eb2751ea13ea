package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/http/response"
	"github.com/yungbote/rikai-backend/internal/modules/chat"
	"github.com/yungbote/rikai-backend/internal/services"
)

type ChatHandler struct {
	learning services.LearningService
}

func NewChatHandler(learning services.LearningService) *ChatHandler {
	return &ChatHandler{learning: learning}
}

type sendChatReq struct {
	Message string `json:"message" binding:"required"`
}

// GET /api/chat
func (h *ChatHandler) Log(c *gin.Context) {
	response.RespondOK(c, h.learning.ChatLog(c.Request.Context()))
}

// POST /api/chat
func (h *ChatHandler) Send(c *gin.Context) {
	var req sendChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	reply, err := h.learning.SendChat(c.Request.Context(), req.Message)
	if errors.Is(err, chat.ErrDiscarded) {
		response.RespondError(c, http.StatusConflict, "chat_reset", err)
		return
	}
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reply": reply})
}
