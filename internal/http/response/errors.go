package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/platform/apierr"
)

// RestateHint accompanies failed curriculum generation.
const RestateHint = "目標をもう少し具体的に言い換えてみてください。"

// Classify maps an error from the learning core to its HTTP status and code.
// An *apierr.Error anywhere in the chain wins.
func Classify(err error) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	switch {
	case err == nil:
		return apierr.New(http.StatusInternalServerError, "internal", nil)
	case errors.Is(err, domain.ErrInvalidInput):
		return apierr.New(http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, domain.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, domain.ErrInvalidTransition):
		return apierr.New(http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, domain.ErrNotSelected):
		return apierr.New(http.StatusConflict, "not_selected", err)
	case errors.Is(err, domain.ErrContentUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "content_unavailable", err)
	case errors.Is(err, domain.ErrGenerationFailure), errors.Is(err, domain.ErrSchemaViolation):
		return apierr.New(http.StatusBadGateway, "generation_failed", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal", err)
	}
}

// RespondErr writes the error envelope for err. Skeleton generation failures
// carry RestateHint.
func RespondErr(c *gin.Context, err error) {
	ae := Classify(err)
	env := ErrorEnvelope{Error: APIError{Message: ae.Error(), Code: ae.Code}}
	var ge *domain.GenerationError
	if errors.As(err, &ge) && ge.Kind == "skeleton" {
		env.Error.Hint = RestateHint
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(ae.Status, env)
}
