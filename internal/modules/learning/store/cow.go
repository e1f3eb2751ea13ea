package store

import "github.com/yungbote/rikai-backend/internal/domain"

// The functions below never modify their input. They return a new collection
// that shares every curriculum, module and task slice that was not on the path
// from the root to the changed task.

// WithAdded prepends c.
func WithAdded(cs []domain.Curriculum, c domain.Curriculum) []domain.Curriculum {
	out := make([]domain.Curriculum, 0, len(cs)+1)
	out = append(out, c)
	return append(out, cs...)
}

// WithTask replaces one task via update. It reports false, and returns cs
// unchanged, when the pair does not resolve or update declines the change.
func WithTask(cs []domain.Curriculum, curriculumID, taskID string, update func(domain.Task) (domain.Task, bool)) ([]domain.Curriculum, bool) {
	ci := indexOf(cs, curriculumID)
	if ci < 0 {
		return cs, false
	}
	cur, ref, ok := cs[ci].FindTask(taskID)
	if !ok {
		return cs, false
	}
	next, changed := update(cur)
	if !changed {
		return cs, false
	}

	old := cs[ci]
	tasks := make([]domain.Task, len(old.Modules[ref.ModuleIndex].Tasks))
	copy(tasks, old.Modules[ref.ModuleIndex].Tasks)
	tasks[ref.TaskIndex] = next

	modules := make([]domain.Module, len(old.Modules))
	copy(modules, old.Modules)
	modules[ref.ModuleIndex].Tasks = tasks

	c := old
	c.Modules = modules

	out := make([]domain.Curriculum, len(cs))
	copy(out, cs)
	out[ci] = c
	return out, true
}

// WithStatus sets a task's status. Setting the current status again is not a change.
func WithStatus(cs []domain.Curriculum, curriculumID, taskID string, status domain.TaskStatus) ([]domain.Curriculum, bool) {
	return WithTask(cs, curriculumID, taskID, func(t domain.Task) (domain.Task, bool) {
		if t.Status == status {
			return t, false
		}
		t.Status = status
		return t, true
	})
}

// WithContent attaches content to a task that has none. Existing content is
// never replaced.
func WithContent(cs []domain.Curriculum, curriculumID, taskID string, content domain.DetailedContent) ([]domain.Curriculum, bool) {
	return WithTask(cs, curriculumID, taskID, func(t domain.Task) (domain.Task, bool) {
		if t.HasContent() {
			return t, false
		}
		c := cloneContent(content)
		t.Content = &c
		return t, true
	})
}

func indexOf(cs []domain.Curriculum, id string) int {
	for i := range cs {
		if cs[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneContent(c domain.DetailedContent) domain.DetailedContent {
	c.KeyPoints = append([]string(nil), c.KeyPoints...)
	c.Quiz.Options = append([]string(nil), c.Quiz.Options...)
	return c
}
