package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/learning/content"
	"github.com/yungbote/rikai-backend/internal/modules/learning/prompts"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/platform/openai"
)

const (
	KindSkeleton = "skeleton"
	KindDetail   = "detail"
	KindConverse = "converse"
)

// Gateway issues the three generation requests. It performs no retries of its
// own: a payload that fails validation is reported, not re-requested.
type Gateway interface {
	CreateSkeleton(ctx context.Context, goal string, level domain.ExperienceLevel) (domain.CurriculumDraft, error)
	CreateDetail(ctx context.Context, curriculumTitle, taskTitle string) (domain.DetailedContent, error)
	Converse(ctx context.Context, curriculumTitle, taskTitle string, history []domain.ChatMessage, message string) (string, error)
}

// Models selects a model per request kind. Empty values use the client default.
type Models struct {
	Skeleton string
	Detail   string
	Chat     string
}

type gateway struct {
	log      *logger.Logger
	skeleton openai.Client
	detail   openai.Client
	chat     openai.Client
}

// New builds the gateway on ai. A nil ai yields a gateway whose every
// request fails with ErrProviderUnconfigured. Transport retries of ai are
// disabled: each gateway call makes at most one provider request, and
// re-issuing is left to the caller.
func New(log *logger.Logger, ai openai.Client, models Models) Gateway {
	if ai == nil {
		ai = unconfigured{}
	}
	ai = openai.WithRetries(ai, 0)
	return &gateway{
		log:      log.With("service", "GenerationGateway"),
		skeleton: openai.WithModel(ai, models.Skeleton),
		detail:   openai.WithModel(ai, models.Detail),
		chat:     openai.WithModel(ai, models.Chat),
	}
}

func (g *gateway) CreateSkeleton(ctx context.Context, goal string, level domain.ExperienceLevel) (domain.CurriculumDraft, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return domain.CurriculumDraft{}, fmt.Errorf("%w: goal required", domain.ErrInvalidInput)
	}
	p, err := prompts.Build(prompts.PromptCurriculumSkeleton, prompts.Input{
		Goal:            goal,
		ExperienceLabel: level.Label(),
	})
	if err != nil {
		return domain.CurriculumDraft{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	start := time.Now()
	obj, err := g.skeleton.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		return domain.CurriculumDraft{}, g.fail(KindSkeleton, start, err)
	}
	draft, err := content.DecodeSkeleton(obj)
	if err != nil {
		return domain.CurriculumDraft{}, g.fail(KindSkeleton, start, err)
	}
	g.ok(KindSkeleton, start, "modules", len(draft.Modules))
	return draft, nil
}

func (g *gateway) CreateDetail(ctx context.Context, curriculumTitle, taskTitle string) (domain.DetailedContent, error) {
	p, err := prompts.Build(prompts.PromptTaskDetail, prompts.Input{
		CurriculumTitle: curriculumTitle,
		TaskTitle:       taskTitle,
	})
	if err != nil {
		return domain.DetailedContent{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	start := time.Now()
	obj, err := g.detail.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		return domain.DetailedContent{}, g.fail(KindDetail, start, err)
	}
	c, err := content.DecodeDetail(obj)
	if err != nil {
		return domain.DetailedContent{}, g.fail(KindDetail, start, err)
	}
	g.ok(KindDetail, start, "task_title", taskTitle)
	return c, nil
}

func (g *gateway) Converse(ctx context.Context, curriculumTitle, taskTitle string, history []domain.ChatMessage, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message required", domain.ErrInvalidInput)
	}
	p, err := prompts.Build(prompts.PromptMentorChat, prompts.Input{
		CurriculumTitle: curriculumTitle,
		TaskTitle:       taskTitle,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	turns := make([]openai.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, openai.Turn{Role: string(m.Role), Text: m.Text})
	}

	start := time.Now()
	reply, err := g.chat.GenerateChat(ctx, p.System, turns, message)
	if err != nil {
		return "", g.fail(KindConverse, start, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", g.fail(KindConverse, start, errors.New("empty reply"))
	}
	g.ok(KindConverse, start, "history_len", len(history))
	return reply, nil
}

func (g *gateway) ok(kind string, start time.Time, kv ...any) {
	observability.Current().IncGeneration(kind, "ok")
	g.log.Info("generation succeeded", append([]any{"kind", kind, "duration_ms", time.Since(start).Milliseconds()}, kv...)...)
}

func (g *gateway) fail(kind string, start time.Time, err error) error {
	outcome := "error"
	var sv *domain.SchemaViolationError
	if errors.As(err, &sv) {
		outcome = "schema_violation"
		g.log.Warn("generated payload rejected",
			"kind", kind,
			"schema", sv.Schema,
			"path", sv.Path,
			"reason", sv.Reason,
		)
	} else {
		g.log.Warn("generation failed",
			"kind", kind,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
	}
	observability.Current().IncGeneration(kind, outcome)
	return &domain.GenerationError{Kind: kind, Err: err}
}

// ErrProviderUnconfigured is the cause of every failure of a gateway built
// without a provider client.
var ErrProviderUnconfigured = errors.New("generation provider not configured")

type unconfigured struct{}

func (unconfigured) GenerateJSON(context.Context, string, string, string, map[string]any) (map[string]any, error) {
	return nil, ErrProviderUnconfigured
}

func (unconfigured) GenerateChat(context.Context, string, []openai.Turn, string) (string, error) {
	return "", ErrProviderUnconfigured
}
