package domain

import (
	"fmt"
	"strings"
	"time"
)

// CurriculumDraft is a validated skeleton as produced by the generator: the
// curriculum without ids, goal, statuses or timestamps.
type CurriculumDraft struct {
	Title               string
	Description         string
	Level               string
	TotalEstimatedHours float64
	Modules             []ModuleDraft
}

type ModuleDraft struct {
	Title string
	Tasks []TaskDraft
}

type TaskDraft struct {
	Title          string
	Description    string
	EstimatedHours float64
}

// NewCurriculum assigns identity to a draft. Module ids are module-{i}, task
// ids task-{i}-{j}, every task starts pending and TotalEstimatedHours is the
// sum of the task estimates.
func NewCurriculum(d CurriculumDraft, id, goal string, createdAt time.Time) Curriculum {
	c := Curriculum{
		ID:          id,
		Title:       d.Title,
		Goal:        strings.TrimSpace(goal),
		Description: d.Description,
		Level:       d.Level,
		Modules:     make([]Module, len(d.Modules)),
		CreatedAt:   createdAt.UnixMilli(),
	}
	for mi, md := range d.Modules {
		m := Module{
			ID:    fmt.Sprintf("module-%d", mi),
			Title: md.Title,
			Tasks: make([]Task, len(md.Tasks)),
		}
		for ti, td := range md.Tasks {
			m.Tasks[ti] = Task{
				ID:             fmt.Sprintf("task-%d-%d", mi, ti),
				Title:          td.Title,
				Description:    td.Description,
				EstimatedHours: td.EstimatedHours,
				Status:         TaskStatusPending,
			}
			c.TotalEstimatedHours += td.EstimatedHours
		}
		c.Modules[mi] = m
	}
	return c
}
