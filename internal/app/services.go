package app

import (
	"context"
	"fmt"

	"github.com/yungbote/rikai-backend/internal/modules/chat"
	"github.com/yungbote/rikai-backend/internal/modules/learning/gateway"
	"github.com/yungbote/rikai-backend/internal/modules/learning/materialize"
	"github.com/yungbote/rikai-backend/internal/modules/learning/progress"
	"github.com/yungbote/rikai-backend/internal/modules/learning/store"
	"github.com/yungbote/rikai-backend/internal/modules/profile"
	"github.com/yungbote/rikai-backend/internal/platform/kvstore"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/platform/openai"
	"github.com/yungbote/rikai-backend/internal/services"
)

type Services struct {
	Gateway  gateway.Gateway
	Store    *store.Store
	Progress *progress.Machine
	Cache    *materialize.Cache
	Chat     *chat.Session
	Profiles *profile.Service
	Learning services.LearningService
}

// wireServices builds the learning core on kv. ai may be nil for commands
// that never generate; the gateway then fails every request.
func wireServices(ctx context.Context, log *logger.Logger, cfg Config, kv kvstore.Store, ai openai.Client) (Services, error) {
	log.Info("Wiring services...")
	gw := gateway.New(log, ai, gateway.Models{
		Skeleton: cfg.SkeletonModel,
		Detail:   cfg.DetailModel,
		Chat:     cfg.ChatModel,
	})

	st := store.New(log, kv, store.Options{SeedEnabled: cfg.SeedEnabled})
	if err := st.Load(ctx); err != nil {
		return Services{}, fmt.Errorf("load curricula: %w", err)
	}

	pm := progress.New(log, st)
	cache := materialize.New(log, gw, st, materialize.Options{Timeout: cfg.ContentTimeout})
	session := chat.NewSession(log, gw, nil)

	return Services{
		Gateway:  gw,
		Store:    st,
		Progress: pm,
		Cache:    cache,
		Chat:     session,
		Profiles: profile.New(log, kv),
		Learning: services.NewLearningService(log, gw, st, pm, cache, session),
	}, nil
}
