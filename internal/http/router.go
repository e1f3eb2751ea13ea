package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/rikai-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rikai-backend/internal/http/middleware"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	ServiceName    string

	AuthMiddleware    *httpMW.AuthMiddleware
	UserHandler       *httpH.UserHandler
	CurriculumHandler *httpH.CurriculumHandler
	TaskHandler       *httpH.TaskHandler
	ChatHandler       *httpH.ChatHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.OptionalIdentity())
	}
	{
		// User (Me)
		if cfg.UserHandler != nil {
			api.GET("/me", cfg.UserHandler.GetMe)
			api.PUT("/me", cfg.UserHandler.UpdateMe)
			api.POST("/logout", cfg.UserHandler.Logout)
		}

		// Curricula
		if cfg.CurriculumHandler != nil {
			api.GET("/curricula", cfg.CurriculumHandler.List)
			api.POST("/curricula", cfg.CurriculumHandler.Create)
			api.GET("/curricula/:id", cfg.CurriculumHandler.Get)
			api.GET("/stats", cfg.CurriculumHandler.Stats)
		}

		// Tasks
		if cfg.TaskHandler != nil {
			tasks := api.Group("/curricula/:id/tasks/:taskId")
			tasks.POST("/select", cfg.TaskHandler.Select)
			tasks.POST("/retry", cfg.TaskHandler.Retry)
			tasks.GET("/content", cfg.TaskHandler.Content)
			tasks.POST("/answer", cfg.TaskHandler.Answer)
			tasks.POST("/complete", cfg.TaskHandler.Complete)
		}

		// Mentor chat
		if cfg.ChatHandler != nil {
			api.GET("/chat", cfg.ChatHandler.Log)
			api.POST("/chat", cfg.ChatHandler.Send)
		}
	}

	return r
}
