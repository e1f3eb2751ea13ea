package app

import (
	httpH "github.com/yungbote/rikai-backend/internal/http/handlers"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	User       *httpH.UserHandler
	Curriculum *httpH.CurriculumHandler
	Task       *httpH.TaskHandler
	Chat       *httpH.ChatHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		User:       httpH.NewUserHandler(services.Profiles),
		Curriculum: httpH.NewCurriculumHandler(log, services.Learning),
		Task:       httpH.NewTaskHandler(log, services.Learning),
		Chat:       httpH.NewChatHandler(services.Learning),
	}
}
