package app

import (
	"time"

	"github.com/yungbote/rikai-backend/internal/platform/envutil"
	"github.com/yungbote/rikai-backend/internal/platform/kvstore"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/platform/openai"
)

type Config struct {
	LogMode     string
	HTTPAddr    string
	Environment string

	JWTSecretKey   string
	AllowedOrigins []string

	SeedEnabled    bool
	ContentTimeout time.Duration

	SkeletonModel string
	DetailModel   string
	ChatModel     string

	OpenAI openai.Config
	KV     kvstore.Config
}

func LoadConfig(log *logger.Logger) Config {
	oa := openai.ConfigFromEnv()
	cfg := Config{
		LogMode:        envutil.String("LOG_MODE", "development"),
		HTTPAddr:       envutil.String("HTTP_ADDR", ":8080"),
		Environment:    envutil.String("APP_ENV", "development"),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
		SeedEnabled:    envutil.Bool("SEED_ENABLED", true),
		ContentTimeout: envutil.Seconds("CONTENT_TIMEOUT_SECONDS", 2*time.Minute),
		SkeletonModel:  oa.Model,
		DetailModel:    envutil.String("OPENAI_DETAIL_MODEL", oa.Model),
		ChatModel:      envutil.String("OPENAI_CHAT_MODEL", oa.Model),
		OpenAI:         oa,
		KV:             kvstore.ConfigFromEnv(),
	}
	if log != nil {
		log.Info("config loaded",
			"http_addr", cfg.HTTPAddr,
			"kv_backend", cfg.KV.Backend,
			"seed_enabled", cfg.SeedEnabled,
			"skeleton_model", cfg.SkeletonModel,
			"detail_model", cfg.DetailModel,
			"chat_model", cfg.ChatModel,
			"jwt_identity", cfg.JWTSecretKey != "",
		)
	}
	return cfg
}
