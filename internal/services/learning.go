package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/chat"
	"github.com/yungbote/rikai-backend/internal/modules/learning/gateway"
	"github.com/yungbote/rikai-backend/internal/modules/learning/materialize"
	"github.com/yungbote/rikai-backend/internal/modules/learning/progress"
	"github.com/yungbote/rikai-backend/internal/modules/learning/store"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

// LearningService is the event-level surface of the curriculum engine: every
// learner action maps to one method.
type LearningService interface {
	CreateCurriculum(ctx context.Context, goal, level string) (domain.Curriculum, error)

	// OpenCurriculum selects the default task: the first task of the first module.
	OpenCurriculum(ctx context.Context, curriculumID string) (TaskView, <-chan materialize.Result, error)
	SelectTask(ctx context.Context, curriculumID, taskID string) (TaskView, <-chan materialize.Result, error)
	// RetryContent re-issues the content request of the selected task. Other
	// tasks fail with domain.ErrNotSelected.
	RetryContent(ctx context.Context, curriculumID, taskID string) (TaskView, <-chan materialize.Result, error)
	TaskState(ctx context.Context, curriculumID, taskID string) (TaskView, error)

	AnswerQuiz(ctx context.Context, curriculumID, taskID string, option int) (progress.Evaluation, error)
	CompleteTask(ctx context.Context, curriculumID, taskID string, option int) (progress.Evaluation, domain.Curriculum, error)

	SendChat(ctx context.Context, text string) (domain.ChatMessage, error)
	ChatLog(ctx context.Context) ChatView

	List(ctx context.Context) []domain.Curriculum
	Get(ctx context.Context, curriculumID string) (domain.Curriculum, error)
	Search(ctx context.Context, query string) []domain.Curriculum
	Progress(ctx context.Context, curriculumID string) (int, error)
	Stats(ctx context.Context) Stats
}

type TaskView struct {
	CurriculumID string            `json:"curriculumId"`
	Task         domain.Task       `json:"task"`
	State        materialize.State `json:"state"`
	Progress     int               `json:"progress"`
}

type ChatView struct {
	Scope    *chat.Scope          `json:"scope"`
	Messages []domain.ChatMessage `json:"messages"`
}

type Stats struct {
	Curricula      int                `json:"curricula"`
	CompletedTasks int                `json:"completedTasks"`
	TotalTasks     int                `json:"totalTasks"`
	TotalHours     float64            `json:"totalHours"`
	Latest         *domain.Curriculum `json:"latest,omitempty"`
	LatestProgress int                `json:"latestProgress"`
}

type learningService struct {
	log      *logger.Logger
	gw       gateway.Gateway
	store    *store.Store
	progress *progress.Machine
	cache    *materialize.Cache
	chat     *chat.Session
}

func NewLearningService(
	baseLog *logger.Logger,
	gw gateway.Gateway,
	st *store.Store,
	pm *progress.Machine,
	cache *materialize.Cache,
	session *chat.Session,
) LearningService {
	return &learningService{
		log:      baseLog.With("service", "LearningService"),
		gw:       gw,
		store:    st,
		progress: pm,
		cache:    cache,
		chat:     session,
	}
}

func (s *learningService) CreateCurriculum(ctx context.Context, goal, level string) (domain.Curriculum, error) {
	lvl, err := domain.ParseExperienceLevel(level)
	if err != nil {
		return domain.Curriculum{}, err
	}
	if strings.TrimSpace(goal) == "" {
		return domain.Curriculum{}, fmt.Errorf("%w: goal required", domain.ErrInvalidInput)
	}
	draft, err := s.gw.CreateSkeleton(ctx, goal, lvl)
	if err != nil {
		return domain.Curriculum{}, err
	}
	c, err := s.store.Create(ctx, goal, draft)
	if err != nil {
		return domain.Curriculum{}, err
	}
	s.log.Info("curriculum created",
		"curriculum_id", c.ID,
		"level", string(lvl),
		"modules", len(c.Modules),
		"tasks", c.TaskCount(),
	)
	return c, nil
}

func (s *learningService) OpenCurriculum(ctx context.Context, curriculumID string) (TaskView, <-chan materialize.Result, error) {
	c, err := s.Get(ctx, curriculumID)
	if err != nil {
		return TaskView{}, nil, err
	}
	first, ok := c.FirstTask()
	if !ok {
		return TaskView{}, nil, fmt.Errorf("%w: curriculum %q has no tasks", domain.ErrNotFound, curriculumID)
	}
	return s.SelectTask(ctx, curriculumID, first.ID)
}

func (s *learningService) SelectTask(ctx context.Context, curriculumID, taskID string) (TaskView, <-chan materialize.Result, error) {
	c, task, ok := s.store.Task(curriculumID, taskID)
	if !ok {
		return TaskView{}, nil, fmt.Errorf("%w: task %s/%s", domain.ErrNotFound, curriculumID, taskID)
	}
	if _, err := s.progress.Start(ctx, curriculumID, taskID); err != nil {
		return TaskView{}, nil, err
	}
	s.chat.Reset(chat.Scope{
		CurriculumID:    curriculumID,
		TaskID:          taskID,
		CurriculumTitle: c.Title,
		TaskTitle:       task.Title,
	})
	ch, err := s.cache.Select(ctx, curriculumID, taskID)
	if err != nil {
		return TaskView{}, nil, err
	}
	view, err := s.TaskState(ctx, curriculumID, taskID)
	return view, ch, err
}

func (s *learningService) RetryContent(ctx context.Context, curriculumID, taskID string) (TaskView, <-chan materialize.Result, error) {
	ch, err := s.cache.Retry(ctx, curriculumID, taskID)
	if err != nil {
		return TaskView{}, nil, err
	}
	view, err := s.TaskState(ctx, curriculumID, taskID)
	return view, ch, err
}

func (s *learningService) TaskState(_ context.Context, curriculumID, taskID string) (TaskView, error) {
	c, task, ok := s.store.Task(curriculumID, taskID)
	if !ok {
		return TaskView{}, fmt.Errorf("%w: task %s/%s", domain.ErrNotFound, curriculumID, taskID)
	}
	state, err := s.cache.State(curriculumID, taskID)
	if err != nil {
		return TaskView{}, err
	}
	return TaskView{
		CurriculumID: curriculumID,
		Task:         task,
		State:        state,
		Progress:     progress.Percent(c),
	}, nil
}

func (s *learningService) AnswerQuiz(_ context.Context, curriculumID, taskID string, option int) (progress.Evaluation, error) {
	_, task, ok := s.store.Task(curriculumID, taskID)
	if !ok {
		return progress.Evaluation{}, fmt.Errorf("%w: task %s/%s", domain.ErrNotFound, curriculumID, taskID)
	}
	return progress.EvaluateQuiz(task, option)
}

func (s *learningService) CompleteTask(ctx context.Context, curriculumID, taskID string, option int) (progress.Evaluation, domain.Curriculum, error) {
	ev, err := s.progress.Complete(ctx, curriculumID, taskID, option)
	c, _ := s.store.Get(curriculumID)
	return ev, c, err
}

func (s *learningService) SendChat(ctx context.Context, text string) (domain.ChatMessage, error) {
	return s.chat.Send(ctx, text)
}

func (s *learningService) ChatLog(context.Context) ChatView {
	v := ChatView{Messages: s.chat.Messages()}
	if scope, ok := s.chat.Scope(); ok {
		v.Scope = &scope
	}
	return v
}

func (s *learningService) List(context.Context) []domain.Curriculum {
	return s.store.List()
}

func (s *learningService) Get(_ context.Context, curriculumID string) (domain.Curriculum, error) {
	c, ok := s.store.Get(curriculumID)
	if !ok {
		return domain.Curriculum{}, fmt.Errorf("%w: curriculum %q", domain.ErrNotFound, curriculumID)
	}
	return c, nil
}

// Search matches query case-insensitively against title and goal. An empty
// query returns everything.
func (s *learningService) Search(_ context.Context, query string) []domain.Curriculum {
	q := strings.ToLower(strings.TrimSpace(query))
	all := s.store.List()
	if q == "" {
		return all
	}
	out := make([]domain.Curriculum, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.Goal), q) {
			out = append(out, c)
		}
	}
	return out
}

func (s *learningService) Progress(ctx context.Context, curriculumID string) (int, error) {
	c, err := s.Get(ctx, curriculumID)
	if err != nil {
		return 0, err
	}
	return progress.Percent(c), nil
}

func (s *learningService) Stats(context.Context) Stats {
	all := s.store.List()
	st := Stats{Curricula: len(all)}
	for _, c := range all {
		st.CompletedTasks += c.CompletedCount()
		st.TotalTasks += c.TaskCount()
		st.TotalHours += c.TotalEstimatedHours
	}
	if len(all) > 0 {
		latest := all[0]
		st.Latest = &latest
		st.LatestProgress = progress.Percent(latest)
	}
	return st
}
