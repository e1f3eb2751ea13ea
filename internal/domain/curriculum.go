package domain

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// rank orders statuses along the only allowed direction of travel.
func (s TaskStatus) rank() int {
	switch s {
	case TaskStatusInProgress:
		return 1
	case TaskStatusCompleted:
		return 2
	default:
		return 0
	}
}

// Before reports whether s comes strictly earlier than o in pending -> in_progress -> completed.
func (s TaskStatus) Before(o TaskStatus) bool { return s.rank() < o.rank() }

// Curriculum values are shared between snapshots. Treat every field, slice and
// pointer reachable from a Curriculum as read-only; changes go through the store.
type Curriculum struct {
	ID                  string   `json:"id" yaml:"id"`
	Title               string   `json:"title" yaml:"title"`
	Goal                string   `json:"goal" yaml:"goal"`
	Description         string   `json:"description" yaml:"description"`
	Level               string   `json:"level" yaml:"level"`
	TotalEstimatedHours float64  `json:"totalEstimatedHours" yaml:"totalEstimatedHours"`
	Modules             []Module `json:"modules" yaml:"modules"`
	// CreatedAt is Unix milliseconds.
	CreatedAt int64 `json:"createdAt" yaml:"createdAt"`
}

type Module struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

type Task struct {
	ID             string           `json:"id" yaml:"id"`
	Title          string           `json:"title" yaml:"title"`
	Description    string           `json:"description" yaml:"description"`
	EstimatedHours float64          `json:"estimatedHours" yaml:"estimatedHours"`
	Status         TaskStatus       `json:"status" yaml:"status"`
	Content        *DetailedContent `json:"content,omitempty" yaml:"content,omitempty"`
}

func (t Task) HasContent() bool { return t.Content != nil }

type DetailedContent struct {
	Explanation string   `json:"explanation" yaml:"explanation"`
	KeyPoints   []string `json:"keyPoints" yaml:"keyPoints"`
	Quiz        Question `json:"quiz" yaml:"quiz"`
}

const QuizOptionCount = 4

type Question struct {
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
}

func (c Curriculum) Created() time.Time { return time.UnixMilli(c.CreatedAt) }

// TaskRef locates a task inside a curriculum.
type TaskRef struct {
	ModuleIndex int
	TaskIndex   int
}

// FindTask resolves taskID across all modules in order.
func (c Curriculum) FindTask(taskID string) (Task, TaskRef, bool) {
	for mi, m := range c.Modules {
		for ti, t := range m.Tasks {
			if t.ID == taskID {
				return t, TaskRef{ModuleIndex: mi, TaskIndex: ti}, true
			}
		}
	}
	return Task{}, TaskRef{}, false
}

// Tasks returns all tasks in learning-path order.
func (c Curriculum) Tasks() []Task {
	out := make([]Task, 0, c.TaskCount())
	for _, m := range c.Modules {
		out = append(out, m.Tasks...)
	}
	return out
}

func (c Curriculum) TaskCount() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Tasks)
	}
	return n
}

func (c Curriculum) CompletedCount() int {
	n := 0
	for _, m := range c.Modules {
		for _, t := range m.Tasks {
			if t.Status == TaskStatusCompleted {
				n++
			}
		}
	}
	return n
}

// FirstTask is the default selection when a curriculum is opened.
func (c Curriculum) FirstTask() (Task, bool) {
	for _, m := range c.Modules {
		if len(m.Tasks) > 0 {
			return m.Tasks[0], true
		}
	}
	return Task{}, false
}
