package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/learning/gateway"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

// ErrDiscarded is returned by Send when the session was reset while the reply
// was outstanding. The reply is dropped, not appended to the new log.
var ErrDiscarded = errors.New("chat: session reset before reply arrived")

type Scope struct {
	CurriculumID    string `json:"curriculumId"`
	TaskID          string `json:"taskId"`
	CurriculumTitle string `json:"curriculumTitle"`
	TaskTitle       string `json:"taskTitle"`
}

func (s Scope) samePair(o Scope) bool {
	return s.CurriculumID == o.CurriculumID && s.TaskID == o.TaskID
}

// Session is the in-memory mentor conversation for one (curriculum, task)
// pair. It is never persisted.
type Session struct {
	log *logger.Logger
	gw  gateway.Gateway
	now func() time.Time

	mu       sync.Mutex
	scope    Scope
	hasScope bool
	// epoch increments on every reset; replies carry the epoch they were sent in.
	epoch    uint64
	messages []domain.ChatMessage
}

func NewSession(log *logger.Logger, gw gateway.Gateway, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{log: log.With("service", "ChatSession"), gw: gw, now: now}
}

// Reset scopes the session to a pair. Moving to a different pair clears the
// log and reports true; re-selecting the current pair keeps it.
func (s *Session) Reset(scope Scope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasScope && s.scope.samePair(scope) {
		s.scope = scope
		return false
	}
	s.scope, s.hasScope = scope, true
	s.epoch++
	s.messages = nil
	return true
}

// Clear drops the scope and the log.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasScope = false
	s.scope = Scope{}
	s.epoch++
	s.messages = nil
}

func (s *Session) Scope() (Scope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope, s.hasScope
}

// Messages returns a copy of the log in send order.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages...)
}

// Send appends the user message at once, then asks the mentor with the prior
// transcript as context. On failure the user message stays in the log and the
// error matches domain.ErrGenerationFailure.
func (s *Session) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: message required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if !s.hasScope {
		s.mu.Unlock()
		return domain.ChatMessage{}, fmt.Errorf("%w: no task selected", domain.ErrInvalidInput)
	}
	scope, epoch := s.scope, s.epoch
	history := append([]domain.ChatMessage(nil), s.messages...)
	s.messages = append(s.messages, domain.ChatMessage{
		Role:      domain.ChatRoleUser,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	})
	s.mu.Unlock()

	reply, err := s.gw.Converse(ctx, scope.CurriculumTitle, scope.TaskTitle, history, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		observability.Current().IncChatReply("discarded")
		s.log.Debug("discarding chat reply for previous task", "task_id", scope.TaskID)
		return domain.ChatMessage{}, ErrDiscarded
	}
	if err != nil {
		observability.Current().IncChatReply("failed")
		if !errors.Is(err, domain.ErrGenerationFailure) {
			err = &domain.GenerationError{Kind: gateway.KindConverse, Err: err}
		}
		return domain.ChatMessage{}, err
	}
	msg := domain.ChatMessage{
		Role:      domain.ChatRoleAssistant,
		Text:      reply,
		Timestamp: s.now().UnixMilli(),
	}
	s.messages = append(s.messages, msg)
	observability.Current().IncChatReply("ok")
	return msg, nil
}
