package store

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/rikai-backend/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed returns the tutorial collection. Curricula without a createdAt are
// stamped with now.
func Seed(now time.Time) ([]domain.Curriculum, error) {
	return ParseSeed(seedYAML, now)
}

func ParseSeed(raw []byte, now time.Time) ([]domain.Curriculum, error) {
	var cs []domain.Curriculum
	if err := yaml.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i := range cs {
		if cs[i].CreatedAt == 0 {
			cs[i].CreatedAt = now.UnixMilli()
		}
	}
	if err := Validate(cs); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return cs, nil
}
