package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/http"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		AllowedOrigins:    cfg.AllowedOrigins,
		ServiceName:       serviceName,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		UserHandler:       handlers.User,
		CurriculumHandler: handlers.Curriculum,
		TaskHandler:       handlers.Task,
		ChatHandler:       handlers.Chat,
	})
}
