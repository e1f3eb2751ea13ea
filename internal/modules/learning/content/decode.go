package content

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/rikai-backend/internal/domain"
)

// DecodeSkeleton validates a generated skeleton and returns it typed. Nothing
// partially typed escapes: on any violation the draft is zero and the error is a
// *domain.SchemaViolationError.
func DecodeSkeleton(obj map[string]any) (domain.CurriculumDraft, error) {
	v := validator{schema: SkeletonSchemaName}
	d := domain.CurriculumDraft{
		Title:               v.requiredString(obj, "title", true),
		Description:         v.requiredString(obj, "description", false),
		Level:               v.requiredString(obj, "level", false),
		TotalEstimatedHours: v.requiredNumber(obj, "totalEstimatedHours"),
	}
	modules := v.requiredArray(obj, "modules", 1)
	for mi, raw := range modules {
		mpath := fmt.Sprintf("modules[%d]", mi)
		mobj := v.object(raw, mpath)
		if mobj == nil {
			break
		}
		md := domain.ModuleDraft{Title: v.requiredString(mobj, mpath+".title", true)}
		tasks := v.requiredArray(mobj, mpath+".tasks", 1)
		for ti, traw := range tasks {
			tpath := fmt.Sprintf("%s.tasks[%d]", mpath, ti)
			tobj := v.object(traw, tpath)
			if tobj == nil {
				break
			}
			td := domain.TaskDraft{
				Title:          v.requiredString(tobj, tpath+".title", true),
				Description:    v.requiredString(tobj, tpath+".description", false),
				EstimatedHours: v.requiredNumber(tobj, tpath+".estimatedHours"),
			}
			if v.err == nil && td.EstimatedHours <= 0 {
				v.fail(tpath+".estimatedHours", "must be positive")
			}
			md.Tasks = append(md.Tasks, td)
		}
		d.Modules = append(d.Modules, md)
	}
	if v.err == nil && d.TotalEstimatedHours < 0 {
		v.fail("totalEstimatedHours", "must not be negative")
	}
	if v.err != nil {
		return domain.CurriculumDraft{}, v.err
	}
	return d, nil
}

// DecodeDetail validates generated task content.
func DecodeDetail(obj map[string]any) (domain.DetailedContent, error) {
	v := validator{schema: DetailSchemaName}
	c := domain.DetailedContent{
		Explanation: v.requiredString(obj, "explanation", true),
	}
	for i, raw := range v.requiredArray(obj, "keyPoints", 1) {
		c.KeyPoints = append(c.KeyPoints, v.stringItem(raw, fmt.Sprintf("keyPoints[%d]", i)))
	}
	if quiz := v.requiredObject(obj, "quiz"); quiz != nil {
		c.Quiz.Question = v.requiredString(quiz, "quiz.question", true)
		options := v.requiredArray(quiz, "quiz.options", 0)
		if v.err == nil && len(options) != domain.QuizOptionCount {
			v.fail("quiz.options", fmt.Sprintf("want exactly %d options, got %d", domain.QuizOptionCount, len(options)))
		}
		for i, raw := range options {
			c.Quiz.Options = append(c.Quiz.Options, v.stringItem(raw, fmt.Sprintf("quiz.options[%d]", i)))
		}
		c.Quiz.CorrectAnswer = v.requiredIndex(quiz, "quiz.correctAnswer", domain.QuizOptionCount)
		c.Quiz.Explanation = v.requiredString(quiz, "quiz.explanation", false)
	}
	if v.err != nil {
		return domain.DetailedContent{}, v.err
	}
	return c, nil
}

// ValidateDetail checks an already typed payload against the same rules, for
// content that did not come through DecodeDetail (seed files, API input).
func ValidateDetail(c domain.DetailedContent) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return &domain.SchemaViolationError{Schema: DetailSchemaName, Reason: err.Error()}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &domain.SchemaViolationError{Schema: DetailSchemaName, Reason: err.Error()}
	}
	_, err = DecodeDetail(obj)
	return err
}

// validator records the first violation; later checks become no-ops.
type validator struct {
	schema string
	err    *domain.SchemaViolationError
}

func (v *validator) fail(path, reason string) {
	if v.err == nil {
		v.err = &domain.SchemaViolationError{Schema: v.schema, Path: path, Reason: reason}
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func (v *validator) lookup(obj map[string]any, path string) (any, bool) {
	if v.err != nil {
		return nil, false
	}
	if obj == nil {
		v.fail(path, "missing required field")
		return nil, false
	}
	raw, ok := obj[lastSegment(path)]
	if !ok || raw == nil {
		v.fail(path, "missing required field")
		return nil, false
	}
	return raw, true
}

func (v *validator) requiredString(obj map[string]any, path string, nonEmpty bool) string {
	raw, ok := v.lookup(obj, path)
	if !ok {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		v.fail(path, fmt.Sprintf("want string, got %T", raw))
		return ""
	}
	s = strings.TrimSpace(s)
	if nonEmpty && s == "" {
		v.fail(path, "must not be empty")
	}
	return s
}

func (v *validator) stringItem(raw any, path string) string {
	if v.err != nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		v.fail(path, fmt.Sprintf("want string, got %T", raw))
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		v.fail(path, "must not be empty")
	}
	return s
}

func (v *validator) requiredNumber(obj map[string]any, path string) float64 {
	raw, ok := v.lookup(obj, path)
	if !ok {
		return 0
	}
	f, ok := numberFromAny(raw)
	if !ok {
		v.fail(path, fmt.Sprintf("want number, got %T", raw))
		return 0
	}
	return f
}

func (v *validator) requiredIndex(obj map[string]any, path string, n int) int {
	raw, ok := v.lookup(obj, path)
	if !ok {
		return 0
	}
	f, ok := numberFromAny(raw)
	if !ok || f != math.Trunc(f) {
		v.fail(path, fmt.Sprintf("want integer, got %v", raw))
		return 0
	}
	if f < 0 || f >= float64(n) {
		v.fail(path, fmt.Sprintf("out of range [0,%d]: %v", n-1, f))
		return 0
	}
	return int(f)
}

func (v *validator) requiredArray(obj map[string]any, path string, minItems int) []any {
	raw, ok := v.lookup(obj, path)
	if !ok {
		return nil
	}
	arr, ok := raw.([]any)
	if !ok {
		v.fail(path, fmt.Sprintf("want array, got %T", raw))
		return nil
	}
	if len(arr) < minItems {
		v.fail(path, fmt.Sprintf("want at least %d item(s), got %d", minItems, len(arr)))
		return nil
	}
	return arr
}

func (v *validator) requiredObject(obj map[string]any, path string) map[string]any {
	raw, ok := v.lookup(obj, path)
	if !ok {
		return nil
	}
	return v.object(raw, path)
}

func (v *validator) object(raw any, path string) map[string]any {
	if v.err != nil {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		v.fail(path, fmt.Sprintf("want object, got %T", raw))
		return nil
	}
	return m
}

func numberFromAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
