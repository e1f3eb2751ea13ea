package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/platform/kvstore"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func draft() domain.CurriculumDraft {
	return domain.CurriculumDraft{
		Title:       "Go入門",
		Description: "desc",
		Level:       "初心者",
		Modules: []domain.ModuleDraft{
			{Title: "基礎", Tasks: []domain.TaskDraft{
				{Title: "環境構築", Description: "d", EstimatedHours: 1},
				{Title: "文法", Description: "d", EstimatedHours: 2},
			}},
			{Title: "応用", Tasks: []domain.TaskDraft{
				{Title: "並行処理", Description: "d", EstimatedHours: 3},
			}},
		},
	}
}

func detail(tag string) domain.DetailedContent {
	return domain.DetailedContent{
		Explanation: tag,
		KeyPoints:   []string{tag},
		Quiz: domain.Question{
			Question:      "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 3,
			Explanation:   "e",
		},
	}
}

func newStore(t *testing.T, kv kvstore.Store, seed bool) *Store {
	t.Helper()
	n := 0
	s := New(logger.Nop(), kv, Options{
		SeedEnabled: seed,
		Now:         func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return "c" + string(rune('0'+n))
		},
	})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadFallsBackToSeed(t *testing.T) {
	s := newStore(t, kvstore.NewMemory(), true)
	cs := s.List()
	if len(cs) != 1 || cs[0].ID != "welcome" {
		t.Fatalf("seed not loaded: %+v", cs)
	}
	task := cs[0].Modules[0].Tasks[0]
	if task.Status != domain.TaskStatusInProgress || !task.HasContent() {
		t.Fatalf("seed task: %+v", task)
	}
	if cs[0].CreatedAt != fixedNow.UnixMilli() {
		t.Fatalf("seed createdAt: got=%d", cs[0].CreatedAt)
	}
}

func TestLoadEmptyWhenSeedDisabled(t *testing.T) {
	s := newStore(t, kvstore.NewMemory(), false)
	if len(s.List()) != 0 {
		t.Fatalf("expected empty collection")
	}
}

func TestLoadCorruptFallsBack(t *testing.T) {
	cases := map[string]string{
		"not json":       `{{{`,
		"wrong shape":    `{"id":"x"}`,
		"unknown status": `[{"id":"x","modules":[{"id":"module-0","tasks":[{"id":"task-0-0","status":"done"}]}]}]`,
		"bad content":    `[{"id":"x","modules":[{"id":"module-0","tasks":[{"id":"task-0-0","status":"pending","content":{"explanation":"e","keyPoints":["k"],"quiz":{"question":"q","options":["a"],"correctAnswer":0,"explanation":"e"}}}]}]}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := kvstore.NewMemory()
			_ = kv.Set(context.Background(), CurriculaKey, []byte(raw))
			s := newStore(t, kv, true)
			if cs := s.List(); len(cs) != 1 || cs[0].ID != "welcome" {
				t.Fatalf("expected seed fallback, got %+v", cs)
			}
		})
	}
}

func TestCreateAssignsIdentityAndPersists(t *testing.T) {
	kv := kvstore.NewMemory()
	s := newStore(t, kv, true)
	c, err := s.Create(context.Background(), "  Goを学ぶ ", draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID != "c1" || c.Goal != "Goを学ぶ" || c.TotalEstimatedHours != 6 {
		t.Fatalf("unexpected curriculum: %+v", c)
	}
	if got := s.List(); len(got) != 2 || got[0].ID != "c1" {
		t.Fatalf("new curriculum should be first: %+v", got)
	}

	reloaded := newStore(t, kv, true)
	if !reflect.DeepEqual(reloaded.List(), s.List()) {
		t.Fatalf("persisted collection differs after reload")
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	s := newStore(t, kvstore.NewMemory(), true)
	c, _ := s.Get("welcome")
	if err := s.Add(context.Background(), c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Add duplicate: got=%v", err)
	}
}

func TestSetContentIsIdempotent(t *testing.T) {
	s := newStore(t, kvstore.NewMemory(), false)
	c, _ := s.Create(context.Background(), "g", draft())
	ctx := context.Background()

	ok, err := s.SetContent(ctx, c.ID, "task-0-1", detail("first"))
	if err != nil || !ok {
		t.Fatalf("first SetContent: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetContent(ctx, c.ID, "task-0-1", detail("second"))
	if err != nil || ok {
		t.Fatalf("second SetContent: ok=%v err=%v", ok, err)
	}
	_, task, _ := s.Task(c.ID, "task-0-1")
	if task.Content.Explanation != "first" {
		t.Fatalf("content overwritten: %q", task.Content.Explanation)
	}
}

func TestMutationsOnUnknownPairAreNoops(t *testing.T) {
	kv := kvstore.NewMemory()
	s := newStore(t, kv, false)
	c, _ := s.Create(context.Background(), "g", draft())
	before := s.List()
	ctx := context.Background()

	for _, pair := range [][2]string{{"nope", "task-0-0"}, {c.ID, "task-9-9"}} {
		if ok, err := s.SetStatus(ctx, pair[0], pair[1], domain.TaskStatusCompleted); ok || err != nil {
			t.Fatalf("SetStatus(%v): ok=%v err=%v", pair, ok, err)
		}
		if ok, err := s.SetContent(ctx, pair[0], pair[1], detail("x")); ok || err != nil {
			t.Fatalf("SetContent(%v): ok=%v err=%v", pair, ok, err)
		}
	}
	if !reflect.DeepEqual(before, s.List()) {
		t.Fatalf("store changed by no-op mutations")
	}
}

func TestSetStatusSharesUntouchedStructure(t *testing.T) {
	s := newStore(t, kvstore.NewMemory(), true)
	c, _ := s.Create(context.Background(), "g", draft())
	before := s.List()

	if ok, err := s.SetStatus(context.Background(), c.ID, "task-0-1", domain.TaskStatusInProgress); !ok || err != nil {
		t.Fatalf("SetStatus: ok=%v err=%v", ok, err)
	}
	after := s.List()

	if before[0].Modules[0].Tasks[1].Status != domain.TaskStatusPending {
		t.Fatalf("previous snapshot was mutated")
	}
	if after[0].Modules[0].Tasks[1].Status != domain.TaskStatusInProgress {
		t.Fatalf("status not applied")
	}
	if &after[0].Modules[1].Tasks[0] != &before[0].Modules[1].Tasks[0] {
		t.Fatalf("untouched module should be shared")
	}
	if &after[1].Modules[0] != &before[1].Modules[0] {
		t.Fatalf("untouched curriculum should be shared")
	}
	if &after[0].Modules[0].Tasks[0] == &before[0].Modules[0].Tasks[0] {
		t.Fatalf("changed module must be copied")
	}
	ids := []string{}
	for _, task := range after[0].Tasks() {
		ids = append(ids, task.ID)
	}
	if !reflect.DeepEqual(ids, []string{"task-0-0", "task-0-1", "task-1-0"}) {
		t.Fatalf("task order changed: %v", ids)
	}
}

type failingKV struct{ kvstore.Store }

func (failingKV) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestFailedPersistLeavesSnapshot(t *testing.T) {
	mem := kvstore.NewMemory()
	s := newStore(t, mem, true)
	s.kv = failingKV{mem}
	ok, err := s.SetStatus(context.Background(), "welcome", "task-0-0", domain.TaskStatusCompleted)
	if ok || err == nil {
		t.Fatalf("expected persist error, ok=%v err=%v", ok, err)
	}
	_, task, _ := s.Task("welcome", "task-0-0")
	if task.Status != domain.TaskStatusInProgress {
		t.Fatalf("snapshot changed despite failed write: %s", task.Status)
	}
}

func TestRoundTripPreservesEnumStrings(t *testing.T) {
	cs, err := Seed(fixedNow)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	c := domain.NewCurriculum(draft(), "c9", "g", fixedNow)
	cs, _ = WithStatus(WithAdded(cs, c), "c9", "task-1-0", domain.TaskStatusCompleted)
	cs, _ = WithContent(cs, "c9", "task-0-0", detail("x"))

	raw, err := Encode(cs)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, want := range []string{`"status":"pending"`, `"status":"in_progress"`, `"status":"completed"`, `"totalEstimatedHours"`, `"correctAnswer":3`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("encoded form missing %s", want)
		}
	}
	back, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(back, cs) {
		t.Fatalf("round trip mismatch\n got=%+v\nwant=%+v", back, cs)
	}
}

func TestEncodeEmptyIsArray(t *testing.T) {
	raw, _ := Encode(nil)
	if string(raw) != "[]" {
		t.Fatalf("Encode(nil): got=%s want=[]", raw)
	}
}
