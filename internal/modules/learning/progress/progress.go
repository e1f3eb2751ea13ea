package progress

import (
	"context"
	"fmt"
	"math"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/learning/store"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

// Allowed transitions:
//
//	pending     -> in_progress   (Start, at most one in_progress task per curriculum)
//	pending     -> completed     (Complete, correct answer only)
//	in_progress -> completed     (Complete, correct answer only)
//
// completed is terminal.
func CanTransition(from, to domain.TaskStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == domain.TaskStatusCompleted {
		return false
	}
	return from.Before(to)
}

type Evaluation struct {
	Correct       bool   `json:"correct"`
	Selected      int    `json:"selected"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// EvaluateQuiz compares selected with the task's quiz. It never changes state.
func EvaluateQuiz(task domain.Task, selected int) (Evaluation, error) {
	if !task.HasContent() {
		return Evaluation{}, fmt.Errorf("%w: task %q has no quiz yet", domain.ErrContentUnavailable, task.ID)
	}
	q := task.Content.Quiz
	if selected < 0 || selected >= len(q.Options) {
		return Evaluation{}, fmt.Errorf("%w: option %d out of range [0,%d]", domain.ErrInvalidInput, selected, len(q.Options)-1)
	}
	return Evaluation{
		Correct:       selected == q.CorrectAnswer,
		Selected:      selected,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}, nil
}

// Percent is round(100 * completed / total), and 0 for a curriculum without tasks.
func Percent(c domain.Curriculum) int {
	total := c.TaskCount()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(c.CompletedCount()) / float64(total)))
}

type Machine struct {
	log   *logger.Logger
	store *store.Store
}

func New(log *logger.Logger, st *store.Store) *Machine {
	return &Machine{log: log.With("service", "ProgressStateMachine"), store: st}
}

// Start moves a pending task to in_progress when no other task of the same
// curriculum is in progress. It reports whether the status changed; any other
// situation, including an unknown pair, is a no-op.
func (m *Machine) Start(ctx context.Context, curriculumID, taskID string) (bool, error) {
	return m.store.Update(ctx, "start", func(cs []domain.Curriculum) ([]domain.Curriculum, bool, error) {
		c, ok := find(cs, curriculumID)
		if !ok {
			return cs, false, nil
		}
		task, _, ok := c.FindTask(taskID)
		if !ok || task.Status != domain.TaskStatusPending {
			return cs, false, nil
		}
		if active, busy := InProgress(c); busy && active.ID != taskID {
			return cs, false, nil
		}
		next, changed := store.WithStatus(cs, curriculumID, taskID, domain.TaskStatusInProgress)
		return next, changed, nil
	})
}

// Complete evaluates the answer and, only when it is correct, marks the task
// completed. An incorrect answer returns the evaluation together with
// domain.ErrInvalidTransition and leaves the status unchanged, so the learner
// can answer again. A task that is already completed is only evaluated.
func (m *Machine) Complete(ctx context.Context, curriculumID, taskID string, selected int) (Evaluation, error) {
	_, task, ok := m.store.Task(curriculumID, taskID)
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: task %s/%s", domain.ErrNotFound, curriculumID, taskID)
	}
	ev, err := EvaluateQuiz(task, selected)
	if err != nil {
		return Evaluation{}, err
	}
	observability.Current().IncQuizAnswered(ev.Correct)
	if task.Status == domain.TaskStatusCompleted {
		return ev, nil
	}
	if !ev.Correct {
		return ev, fmt.Errorf("%w: incorrect answer does not complete task %q", domain.ErrInvalidTransition, taskID)
	}
	if !CanTransition(task.Status, domain.TaskStatusCompleted) {
		return ev, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, task.Status, domain.TaskStatusCompleted)
	}
	if _, err := m.store.SetStatus(ctx, curriculumID, taskID, domain.TaskStatusCompleted); err != nil {
		return ev, err
	}
	m.log.Info("task completed", "curriculum_id", curriculumID, "task_id", taskID)
	return ev, nil
}

// InProgress returns the curriculum's in-progress task, if any.
func InProgress(c domain.Curriculum) (domain.Task, bool) {
	for _, m := range c.Modules {
		for _, t := range m.Tasks {
			if t.Status == domain.TaskStatusInProgress {
				return t, true
			}
		}
	}
	return domain.Task{}, false
}

func find(cs []domain.Curriculum, id string) (domain.Curriculum, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Curriculum{}, false
}
