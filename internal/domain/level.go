package domain

import (
	"fmt"
	"strings"
)

type ExperienceLevel string

const (
	LevelNovice       ExperienceLevel = "novice"
	LevelBasics       ExperienceLevel = "basics"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
)

var ExperienceLevels = []ExperienceLevel{LevelNovice, LevelBasics, LevelIntermediate, LevelAdvanced}

var levelLabels = map[ExperienceLevel]string{
	LevelNovice:       "全くの初心者（ゼロから学びたい）",
	LevelBasics:       "基礎は知っている（学び直したい）",
	LevelIntermediate: "中級者（さらに専門性を高めたい）",
	LevelAdvanced:     "上級者（特定の難所を克服したい）",
}

// Label is the learner-facing description sent to the generator.
func (l ExperienceLevel) Label() string {
	if s, ok := levelLabels[l]; ok {
		return s
	}
	return string(l)
}

// ParseExperienceLevel accepts the code ("novice"), the full label, or the
// label head before the parenthesis ("全くの初心者").
func ParseExperienceLevel(raw string) (ExperienceLevel, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: experience level required", ErrInvalidInput)
	}
	for _, l := range ExperienceLevels {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
		label := levelLabels[l]
		if s == label || s == labelHead(label) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown experience level %q", ErrInvalidInput, raw)
}

func labelHead(label string) string {
	if i := strings.Index(label, "（"); i > 0 {
		return label[:i]
	}
	return label
}
