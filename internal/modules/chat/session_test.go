package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/learning/gateway/gatewaytest"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

var scopeA = Scope{CurriculumID: "c1", TaskID: "task-0-0", CurriculumTitle: "Go入門", TaskTitle: "A"}
var scopeB = Scope{CurriculumID: "c1", TaskID: "task-0-1", CurriculumTitle: "Go入門", TaskTitle: "B"}

type sent struct {
	msg domain.ChatMessage
	err error
}

func sendAsync(s *Session, text string) <-chan sent {
	ch := make(chan sent, 1)
	go func() {
		m, err := s.Send(context.Background(), text)
		ch <- sent{m, err}
	}()
	return ch
}

func nextCall(t *testing.T, gw *gatewaytest.Gateway) *gatewaytest.Call {
	t.Helper()
	select {
	case c := <-gw.Calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for converse call")
		return nil
	}
}

func await(t *testing.T, ch <-chan sent) sent {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reply")
		return sent{}
	}
}

func roles(ms []domain.ChatMessage) string {
	out := ""
	for _, m := range ms {
		out += string(m.Role)[:1]
	}
	return out
}

func TestSendAppendsOptimisticallyThenReply(t *testing.T) {
	gw := gatewaytest.New()
	s := NewSession(logger.Nop(), gw, nil)
	s.Reset(scopeA)

	done := sendAsync(s, "goroutineとは？")
	call := nextCall(t, gw)
	if got := s.Messages(); len(got) != 1 || got[0].Role != domain.ChatRoleUser {
		t.Fatalf("user message not appended immediately: %+v", got)
	}
	if len(call.History) != 0 || call.Message != "goroutineとは？" || call.TaskTitle != "A" {
		t.Fatalf("first call: %+v", call)
	}
	call.ReleaseReply("軽量スレッドです")
	if r := await(t, done); r.err != nil || r.msg.Text != "軽量スレッドです" {
		t.Fatalf("reply: %+v", r)
	}

	done = sendAsync(s, "channelは？")
	call = nextCall(t, gw)
	if len(call.History) != 2 || call.History[1].Role != domain.ChatRoleAssistant {
		t.Fatalf("second call should carry prior transcript: %+v", call.History)
	}
	call.ReleaseReply("通信路です")
	await(t, done)
	if got := roles(s.Messages()); got != "uaua" {
		t.Fatalf("log roles: got=%s want=uaua", got)
	}
}

func TestFailureKeepsUserMessage(t *testing.T) {
	gw := gatewaytest.New()
	s := NewSession(logger.Nop(), gw, nil)
	s.Reset(scopeA)

	done := sendAsync(s, "質問")
	nextCall(t, gw).Fail(errors.New("upstream 500"))
	r := await(t, done)
	if !errors.Is(r.err, domain.ErrGenerationFailure) {
		t.Fatalf("err: got=%v want generation failure", r.err)
	}
	if got := roles(s.Messages()); got != "u" {
		t.Fatalf("log roles: got=%s want=u", got)
	}
}

func TestReplyAfterResetIsDiscarded(t *testing.T) {
	gw := gatewaytest.New()
	s := NewSession(logger.Nop(), gw, nil)
	s.Reset(scopeA)

	done := sendAsync(s, "Aについて")
	call := nextCall(t, gw)
	if !s.Reset(scopeB) {
		t.Fatalf("switching task should clear the session")
	}
	call.ReleaseReply("Aの答え")
	if r := await(t, done); !errors.Is(r.err, ErrDiscarded) {
		t.Fatalf("err: got=%v want ErrDiscarded", r.err)
	}
	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("new session polluted: %+v", got)
	}
}

func TestResetSamePairKeepsLog(t *testing.T) {
	gw := gatewaytest.New()
	s := NewSession(logger.Nop(), gw, nil)
	s.Reset(scopeA)
	done := sendAsync(s, "q")
	nextCall(t, gw).ReleaseReply("a")
	await(t, done)

	if s.Reset(scopeA) {
		t.Fatalf("re-selecting the same task should not clear")
	}
	if len(s.Messages()) != 2 {
		t.Fatalf("log cleared on same-pair reset")
	}
	s.Clear()
	if _, ok := s.Scope(); ok || len(s.Messages()) != 0 {
		t.Fatalf("Clear should drop scope and log")
	}
}

func TestSendValidation(t *testing.T) {
	s := NewSession(logger.Nop(), gatewaytest.New(), nil)
	if _, err := s.Send(context.Background(), "q"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("no scope: got=%v", err)
	}
	s.Reset(scopeA)
	if _, err := s.Send(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank: got=%v", err)
	}
}
