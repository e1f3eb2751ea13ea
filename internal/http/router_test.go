package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/domain"
	httpH "github.com/yungbote/rikai-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rikai-backend/internal/http/middleware"
	"github.com/yungbote/rikai-backend/internal/http/response"
	"github.com/yungbote/rikai-backend/internal/modules/chat"
	"github.com/yungbote/rikai-backend/internal/modules/learning/gateway/gatewaytest"
	"github.com/yungbote/rikai-backend/internal/modules/learning/materialize"
	"github.com/yungbote/rikai-backend/internal/modules/learning/progress"
	"github.com/yungbote/rikai-backend/internal/modules/learning/store"
	"github.com/yungbote/rikai-backend/internal/modules/profile"
	"github.com/yungbote/rikai-backend/internal/platform/kvstore"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/services"
)

type harness struct {
	engine *gin.Engine
	gw     *gatewaytest.Gateway
	store  *store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	kv := kvstore.NewMemory()
	gw := gatewaytest.New()
	st := store.New(log, kv, store.Options{SeedEnabled: true})
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cache := materialize.New(log, gw, st, materialize.Options{Timeout: 5 * time.Second})
	t.Cleanup(func() { _ = cache.Wait(context.Background()) })
	learning := services.NewLearningService(log, gw, st, progress.New(log, st), cache, chat.NewSession(log, gw, nil))

	engine := NewRouter(RouterConfig{
		Log:               log,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, ""),
		UserHandler:       httpH.NewUserHandler(profile.New(log, kv)),
		CurriculumHandler: httpH.NewCurriculumHandler(log, learning),
		TaskHandler:       httpH.NewTaskHandler(log, learning),
		ChatHandler:       httpH.NewChatHandler(learning),
		HealthHandler:     httpH.NewHealthHandler(),
	})
	return &harness{engine: engine, gw: gw, store: st}
}

func (h *harness) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

// doAsync issues a request that blocks on the fake gateway.
func (h *harness) doAsync(t *testing.T, method, path string, body any) <-chan map[string]any {
	ch := make(chan map[string]any, 1)
	go func() {
		rec, out := h.do(t, method, path, body)
		out["_status"] = float64(rec.Code)
		ch <- out
	}()
	return ch
}

func (h *harness) call(t *testing.T) *gatewaytest.Call {
	t.Helper()
	select {
	case c := <-h.gw.Calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for generation call")
		return nil
	}
}

func recv(t *testing.T, ch <-chan map[string]any) map[string]any {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for response")
		return nil
	}
}

func errCode(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthAndSeed(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.do(t, nethttp.MethodGet, "/healthcheck", nil)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	rec, out := h.do(t, nethttp.MethodGet, "/api/curricula", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("list status: %d", rec.Code)
	}
	if list, _ := out["curricula"].([]any); len(list) != 1 {
		t.Fatalf("seed list: %v", out)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestCreateCurriculumErrors(t *testing.T) {
	h := newHarness(t)

	rec, out := h.do(t, nethttp.MethodPost, "/api/curricula", map[string]string{"goal": "French", "level": "wizard"})
	if rec.Code != nethttp.StatusBadRequest || errCode(out) != "invalid_input" {
		t.Fatalf("bad level: %d %v", rec.Code, out)
	}
	rec, _ = h.do(t, nethttp.MethodPost, "/api/curricula", map[string]string{"level": "novice"})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("missing goal: %d", rec.Code)
	}

	res := h.doAsync(t, nethttp.MethodPost, "/api/curricula", map[string]string{"goal": "French", "level": "novice"})
	h.call(t).Fail(&domain.GenerationError{Kind: "skeleton", Err: errors.New("provider down")})
	out = recv(t, res)
	if out["_status"] != float64(nethttp.StatusBadGateway) || errCode(out) != "generation_failed" {
		t.Fatalf("skeleton failure: %v", out)
	}
	if hint := out["error"].(map[string]any)["hint"]; hint != response.RestateHint {
		t.Fatalf("hint: got=%v", hint)
	}
	if n := len(h.store.List()); n != 1 {
		t.Fatalf("failed creation persisted: %d curricula", n)
	}
}

func TestCreateCurriculum(t *testing.T) {
	h := newHarness(t)
	res := h.doAsync(t, nethttp.MethodPost, "/api/curricula", map[string]string{"goal": "French", "level": "全くの初心者"})
	h.call(t).ReleaseSkeleton(domain.CurriculumDraft{
		Title:   "French",
		Modules: []domain.ModuleDraft{{Title: "m", Tasks: []domain.TaskDraft{{Title: "t", EstimatedHours: 1}}}},
	})
	out := recv(t, res)
	if out["_status"] != float64(nethttp.StatusCreated) {
		t.Fatalf("create: %v", out)
	}
	cur := out["curriculum"].(map[string]any)
	id := cur["id"].(string)

	rec, got := h.do(t, nethttp.MethodGet, "/api/curricula/"+id, nil)
	if rec.Code != nethttp.StatusOK || got["progress"] != float64(0) {
		t.Fatalf("get: %d %v", rec.Code, got)
	}
	rec, got = h.do(t, nethttp.MethodGet, "/api/curricula?q=french", nil)
	if list, _ := got["curricula"].([]any); rec.Code != nethttp.StatusOK || len(list) != 1 {
		t.Fatalf("search: %v", got)
	}
	if rec, _ := h.do(t, nethttp.MethodGet, "/api/curricula/missing", nil); rec.Code != nethttp.StatusNotFound {
		t.Fatalf("missing: %d", rec.Code)
	}
}

func TestTaskFlow(t *testing.T) {
	h := newHarness(t)
	c := domain.NewCurriculum(domain.CurriculumDraft{
		Title:   "Go",
		Modules: []domain.ModuleDraft{{Title: "m", Tasks: []domain.TaskDraft{{Title: "A", EstimatedHours: 1}}}},
	}, "go", "Go", time.Now())
	if err := h.store.Add(context.Background(), c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	base := "/api/curricula/go/tasks/task-0-0"

	// Answering before content exists is unavailable.
	rec, out := h.do(t, nethttp.MethodPost, base+"/answer", map[string]int{"option": 0})
	if rec.Code != nethttp.StatusServiceUnavailable || errCode(out) != "content_unavailable" {
		t.Fatalf("answer without content: %d %v", rec.Code, out)
	}

	res := h.doAsync(t, nethttp.MethodPost, base+"/select?wait=true", nil)
	h.call(t).Fail(errors.New("provider down"))
	out = recv(t, res)
	if out["_status"] != float64(nethttp.StatusServiceUnavailable) {
		t.Fatalf("failed select: %v", out)
	}
	_, out = h.do(t, nethttp.MethodGet, base+"/content", nil)
	if out["state"] != string(materialize.StateUnavailable) {
		t.Fatalf("state after failure: %v", out["state"])
	}

	res = h.doAsync(t, nethttp.MethodPost, base+"/retry?wait=true", nil)
	h.call(t).ReleaseDetail(gatewaytest.Detail("A", 2))
	out = recv(t, res)
	if out["_status"] != float64(nethttp.StatusOK) || out["state"] != string(materialize.StateReady) {
		t.Fatalf("retry: %v", out)
	}

	rec, out = h.do(t, nethttp.MethodPost, base+"/answer", map[string]int{"option": 2})
	if ev := out["evaluation"].(map[string]any); rec.Code != nethttp.StatusOK || ev["correct"] != true {
		t.Fatalf("answer: %d %v", rec.Code, out)
	}
	rec, out = h.do(t, nethttp.MethodPost, base+"/complete", map[string]int{"option": 1})
	if rec.Code != nethttp.StatusConflict || out["evaluation"] == nil {
		t.Fatalf("wrong completion: %d %v", rec.Code, out)
	}
	rec, _ = h.do(t, nethttp.MethodPost, base+"/complete", map[string]any{})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("missing option: %d", rec.Code)
	}
	rec, out = h.do(t, nethttp.MethodPost, base+"/complete", map[string]int{"option": 2})
	if rec.Code != nethttp.StatusOK || out["progress"] != float64(100) {
		t.Fatalf("completion: %d %v", rec.Code, out)
	}
	// A wrong answer on a completed task is only evaluated.
	rec, out = h.do(t, nethttp.MethodPost, base+"/complete", map[string]int{"option": 1})
	if ev, _ := out["evaluation"].(map[string]any); rec.Code != nethttp.StatusOK || ev["correct"] != false || out["progress"] != float64(100) {
		t.Fatalf("wrong answer after completion: %d %v", rec.Code, out)
	}
}

func TestChatEndpoints(t *testing.T) {
	h := newHarness(t)
	rec, out := h.do(t, nethttp.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("chat without task: %d %v", rec.Code, out)
	}

	// The seed task already has content, so selecting it issues no request.
	rec, _ = h.do(t, nethttp.MethodPost, "/api/curricula/welcome/tasks/task-0-0/select", nil)
	if rec.Code != nethttp.StatusAccepted {
		t.Fatalf("select: %d", rec.Code)
	}
	res := h.doAsync(t, nethttp.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	h.call(t).ReleaseReply("hello")
	out = recv(t, res)
	if reply := out["reply"].(map[string]any); reply["text"] != "hello" {
		t.Fatalf("reply: %v", out)
	}
	_, out = h.do(t, nethttp.MethodGet, "/api/chat", nil)
	if msgs, _ := out["messages"].([]any); len(msgs) != 2 {
		t.Fatalf("log: %v", out)
	}
}

func TestProfileEndpoints(t *testing.T) {
	h := newHarness(t)
	_, out := h.do(t, nethttp.MethodGet, "/api/me", nil)
	if u := out["user"].(map[string]any); u["id"] != domain.GuestUserID {
		t.Fatalf("guest: %v", out)
	}
	rec, out := h.do(t, nethttp.MethodPut, "/api/me", map[string]string{"name": "Aoi"})
	if u := out["user"].(map[string]any); rec.Code != nethttp.StatusOK || u["name"] != "Aoi" {
		t.Fatalf("update: %d %v", rec.Code, out)
	}
	rec, _ = h.do(t, nethttp.MethodPut, "/api/me", map[string]string{"name": " "})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("blank name: %d", rec.Code)
	}
	h.do(t, nethttp.MethodPost, "/api/logout", nil)
	_, out = h.do(t, nethttp.MethodGet, "/api/me", nil)
	if u := out["user"].(map[string]any); u["name"] != domain.GuestUser().Name {
		t.Fatalf("after logout: %v", out)
	}
}
