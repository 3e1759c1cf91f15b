package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
)

// StatusFor maps a service error onto an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, sferrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, sferrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, sferrors.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, sferrors.ErrPermission):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, sferrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, sferrors.ErrConcurrencyConflict):
		return http.StatusConflict, "concurrency_conflict"
	case errors.Is(err, sferrors.ErrStorage):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondServiceError writes err with the status its kind maps to. Messages of
// unclassified errors stay in the logs.
func RespondServiceError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal error"))
		return
	}
	if status == http.StatusConflict || status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	RespondError(c, status, code, err)
}
