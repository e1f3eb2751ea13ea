package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/platform/apierr"
)

func TestClassify(t *testing.T) {
	schema := &domain.SchemaViolationError{Schema: "task_detail_v1", Path: "quiz", Reason: "missing"}
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"input", fmt.Errorf("%w: goal", domain.ErrInvalidInput), 400, "invalid_input"},
		{"not found", fmt.Errorf("%w: x", domain.ErrNotFound), 404, "not_found"},
		{"transition", domain.ErrInvalidTransition, 409, "invalid_transition"},
		{"not selected", fmt.Errorf("%w: t", domain.ErrNotSelected), 409, "not_selected"},
		{"unavailable", fmt.Errorf("%w: boom", domain.ErrContentUnavailable), 503, "content_unavailable"},
		{"generation", &domain.GenerationError{Kind: "detail", Err: errors.New("x")}, 502, "generation_failed"},
		{"schema", &domain.GenerationError{Kind: "detail", Err: schema}, 502, "generation_failed"},
		{"explicit", apierr.New(418, "teapot", nil), 418, "teapot"},
		{"other", errors.New("disk"), 500, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ae := Classify(tc.err)
			if ae.Status != tc.status || ae.Code != tc.code {
				t.Fatalf("got=%d/%s want=%d/%s", ae.Status, ae.Code, tc.status, tc.code)
			}
		})
	}
}

func TestRespondErrAddsHintForSkeletonFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		kind string
		hint string
	}{
		{"skeleton", RestateHint},
		{"detail", ""},
	} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondErr(c, &domain.GenerationError{Kind: tc.kind, Err: errors.New("bad")})

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("%s status: got=%d want=502", tc.kind, rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Error.Hint != tc.hint || env.Error.Code != "generation_failed" {
			t.Fatalf("%s envelope: %+v", tc.kind, env.Error)
		}
	}
}
