package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/http/response"
	"github.com/yungbote/rikai-backend/internal/modules/profile"
)

type UserHandler struct {
	profiles *profile.Service
}

func NewUserHandler(profiles *profile.Service) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	u, err := h.profiles.Current(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PUT /api/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req profile.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := h.profiles.Save(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// POST /api/logout
func (h *UserHandler) Logout(c *gin.Context) {
	u, err := h.profiles.Logout(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}
