package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/learning/content"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/kvstore"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

// CurriculaKey holds the serialized collection.
const CurriculaKey = "rikai_curriculums"

type Options struct {
	// SeedEnabled selects the tutorial collection, rather than an empty one,
	// when nothing usable is persisted.
	SeedEnabled bool
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
}

// Store owns the curriculum collection. Every snapshot it hands out is
// immutable; mutations build a new snapshot, persist it, and only then make it
// current. A failed write leaves the previous snapshot in place.
type Store struct {
	log  *logger.Logger
	kv   kvstore.Store
	opts Options

	mu   sync.RWMutex
	snap []domain.Curriculum
}

func New(log *logger.Logger, kv kvstore.Store, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		log:  log.With("service", "CurriculumStore"),
		kv:   kv,
		opts: opts,
	}
}

// Load replaces the in-memory collection with the persisted one. Absent or
// corrupt data falls back to the seed (or empty) collection; only a failing
// backend is returned as an error.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, CurriculaKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		s.log.Info("no persisted curricula; starting from fallback", "seed", s.opts.SeedEnabled)
		return s.resetToFallback()
	case err != nil:
		return fmt.Errorf("load curricula: %w", err)
	}

	cs, err := Decode(raw)
	if err != nil {
		s.log.Warn("persisted curricula unreadable; starting from fallback",
			"error", err,
			"bytes", len(raw),
			"seed", s.opts.SeedEnabled,
		)
		return s.resetToFallback()
	}
	s.mu.Lock()
	s.snap = cs
	s.mu.Unlock()
	s.log.Info("curricula loaded", "count", len(cs))
	return nil
}

func (s *Store) resetToFallback() error {
	var cs []domain.Curriculum
	if s.opts.SeedEnabled {
		seed, err := Seed(s.opts.Now())
		if err != nil {
			return err
		}
		cs = seed
	}
	s.mu.Lock()
	s.snap = cs
	s.mu.Unlock()
	return nil
}

// Decode parses a persisted collection. Any shape problem is reported as
// domain.ErrPersistenceCorrupt.
func Decode(raw []byte) ([]domain.Curriculum, error) {
	var cs []domain.Curriculum
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceCorrupt, err)
	}
	if err := Validate(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func Encode(cs []domain.Curriculum) ([]byte, error) {
	if cs == nil {
		cs = []domain.Curriculum{}
	}
	return json.Marshal(cs)
}

// Validate checks the structural rules a loaded collection must satisfy.
func Validate(cs []domain.Curriculum) error {
	ids := map[string]bool{}
	for ci, c := range cs {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: curricula[%d]: missing id", domain.ErrPersistenceCorrupt, ci)
		}
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate curriculum id %q", domain.ErrPersistenceCorrupt, c.ID)
		}
		ids[c.ID] = true
		taskIDs := map[string]bool{}
		for _, m := range c.Modules {
			for _, t := range m.Tasks {
				if t.ID == "" || taskIDs[t.ID] {
					return fmt.Errorf("%w: curriculum %q: missing or duplicate task id %q", domain.ErrPersistenceCorrupt, c.ID, t.ID)
				}
				taskIDs[t.ID] = true
				if !t.Status.Valid() {
					return fmt.Errorf("%w: curriculum %q task %q: unknown status %q", domain.ErrPersistenceCorrupt, c.ID, t.ID, t.Status)
				}
				if t.Content != nil {
					if err := content.ValidateDetail(*t.Content); err != nil {
						return fmt.Errorf("%w: curriculum %q task %q: %v", domain.ErrPersistenceCorrupt, c.ID, t.ID, err)
					}
				}
			}
		}
	}
	return nil
}

// List returns the current snapshot, most recently created first. Callers must
// not modify it.
func (s *Store) List() []domain.Curriculum {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) Get(id string) (domain.Curriculum, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.snap, id); i >= 0 {
		return s.snap[i], true
	}
	return domain.Curriculum{}, false
}

// Task resolves a (curriculum, task) pair against the current snapshot.
func (s *Store) Task(curriculumID, taskID string) (domain.Curriculum, domain.Task, bool) {
	c, ok := s.Get(curriculumID)
	if !ok {
		return domain.Curriculum{}, domain.Task{}, false
	}
	t, _, ok := c.FindTask(taskID)
	if !ok {
		return domain.Curriculum{}, domain.Task{}, false
	}
	return c, t, true
}

// Create assigns identity to a generated draft and adds it.
func (s *Store) Create(ctx context.Context, goal string, draft domain.CurriculumDraft) (domain.Curriculum, error) {
	c := domain.NewCurriculum(draft, s.opts.NewID(), goal, s.opts.Now())
	if err := s.Add(ctx, c); err != nil {
		return domain.Curriculum{}, err
	}
	return c, nil
}

// Add prepends c. Ids must be unique across the collection.
func (s *Store) Add(ctx context.Context, c domain.Curriculum) error {
	if err := Validate([]domain.Curriculum{c}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	_, err := s.mutate(ctx, "add", func(cs []domain.Curriculum) ([]domain.Curriculum, bool, error) {
		if indexOf(cs, c.ID) >= 0 {
			return cs, false, fmt.Errorf("%w: curriculum %q already exists", domain.ErrInvalidInput, c.ID)
		}
		return WithAdded(cs, c), true, nil
	})
	return err
}

// SetStatus reports whether anything changed. An unresolved pair is a no-op,
// not an error. Transition rules live in the progress package.
func (s *Store) SetStatus(ctx context.Context, curriculumID, taskID string, status domain.TaskStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: status %q", domain.ErrInvalidInput, status)
	}
	return s.mutate(ctx, "set_status", func(cs []domain.Curriculum) ([]domain.Curriculum, bool, error) {
		next, ok := WithStatus(cs, curriculumID, taskID, status)
		return next, ok, nil
	})
}

// SetContent attaches content to a task that has none yet. It reports false
// when the pair does not resolve or content is already present.
func (s *Store) SetContent(ctx context.Context, curriculumID, taskID string, c domain.DetailedContent) (bool, error) {
	return s.mutate(ctx, "set_content", func(cs []domain.Curriculum) ([]domain.Curriculum, bool, error) {
		next, ok := WithContent(cs, curriculumID, taskID, c)
		return next, ok, nil
	})
}

// Update applies an arbitrary pure change under the store lock. fn sees the
// current snapshot and returns the replacement; it must not modify its input.
func (s *Store) Update(ctx context.Context, op string, fn func([]domain.Curriculum) ([]domain.Curriculum, bool, error)) (bool, error) {
	return s.mutate(ctx, op, fn)
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]domain.Curriculum) ([]domain.Curriculum, bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, err := fn(s.snap)
	if err != nil {
		observability.Current().IncStoreMutation(op, "rejected")
		return false, err
	}
	if !changed {
		observability.Current().IncStoreMutation(op, "noop")
		return false, nil
	}
	raw, err := Encode(next)
	if err != nil {
		observability.Current().IncStoreMutation(op, "error")
		return false, fmt.Errorf("encode curricula: %w", err)
	}
	if err := s.kv.Set(ctx, CurriculaKey, raw); err != nil {
		observability.Current().IncStoreMutation(op, "error")
		s.log.Error("persist curricula failed", "op", op, "error", err)
		return false, fmt.Errorf("persist curricula: %w", err)
	}
	s.snap = next
	observability.Current().IncStoreMutation(op, "applied")
	return true, nil
}
