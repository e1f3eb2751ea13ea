// Package gatewaytest provides a controllable Gateway for tests that need to
// hold generation requests open and complete them in a chosen order.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/yungbote/rikai-backend/internal/domain"
)

// Call is one outstanding request. Exactly one of Release or Fail should be
// called on it.
type Call struct {
	Kind            string
	CurriculumTitle string
	TaskTitle       string
	Goal            string
	History         []domain.ChatMessage
	Message         string

	done chan result
}

type result struct {
	detail domain.DetailedContent
	draft  domain.CurriculumDraft
	reply  string
	err    error
}

func (c *Call) ReleaseDetail(d domain.DetailedContent) { c.done <- result{detail: d} }
func (c *Call) ReleaseSkeleton(d domain.CurriculumDraft) { c.done <- result{draft: d} }
func (c *Call) ReleaseReply(text string) { c.done <- result{reply: text} }
func (c *Call) Fail(err error) { c.done <- result{err: err} }

// Gateway blocks every request until the test releases it. Calls are delivered
// on the Calls channel in the order they were issued.
type Gateway struct {
	Calls chan *Call

	mu    sync.Mutex
	count map[string]int
}

func New() *Gateway {
	return &Gateway{Calls: make(chan *Call, 64), count: map[string]int{}}
}

// Count reports how many requests of kind were issued.
func (g *Gateway) Count(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count[kind]
}

func (g *Gateway) issue(ctx context.Context, c *Call) (result, error) {
	c.done = make(chan result, 1)
	g.mu.Lock()
	g.count[c.Kind]++
	g.mu.Unlock()
	g.Calls <- c
	select {
	case r := <-c.done:
		return r, r.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (g *Gateway) CreateSkeleton(ctx context.Context, goal string, _ domain.ExperienceLevel) (domain.CurriculumDraft, error) {
	r, err := g.issue(ctx, &Call{Kind: "skeleton", Goal: goal})
	return r.draft, err
}

func (g *Gateway) CreateDetail(ctx context.Context, curriculumTitle, taskTitle string) (domain.DetailedContent, error) {
	r, err := g.issue(ctx, &Call{Kind: "detail", CurriculumTitle: curriculumTitle, TaskTitle: taskTitle})
	return r.detail, err
}

func (g *Gateway) Converse(ctx context.Context, curriculumTitle, taskTitle string, history []domain.ChatMessage, message string) (string, error) {
	h := append([]domain.ChatMessage(nil), history...)
	r, err := g.issue(ctx, &Call{Kind: "converse", CurriculumTitle: curriculumTitle, TaskTitle: taskTitle, History: h, Message: message})
	return r.reply, err
}

// Detail returns a valid payload whose explanation names the task, so tests
// can tell which request produced committed content.
func Detail(tag string, correct int) domain.DetailedContent {
	return domain.DetailedContent{
		Explanation: "explanation for " + tag,
		KeyPoints:   []string{tag + " point"},
		Quiz: domain.Question{
			Question:      "question for " + tag,
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: correct,
			Explanation:   "because",
		},
	}
}
