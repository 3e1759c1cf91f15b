package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", sferrors.Validation("op", "bad"), http.StatusBadRequest, "validation_failed"},
		{"invalid argument", sferrors.InvalidArgument("op", "bad"), http.StatusBadRequest, "invalid_argument"},
		{"permission", sferrors.Permission("op", "nope"), http.StatusForbidden, "forbidden"},
		{"not found", sferrors.New(sferrors.ErrNotFound, "op", nil), http.StatusNotFound, "not_found"},
		{"conflict", sferrors.Conflict("op", errors.New("x")), http.StatusConflict, "concurrency_conflict"},
		{"storage", sferrors.Storage("op", errors.New("x")), http.StatusServiceUnavailable, "storage_unavailable"},
		{"unauthorized", sferrors.New(sferrors.ErrUnauthorized, "op", nil), http.StatusUnauthorized, "unauthorized"},
		{"wrapped", fmt.Errorf("outer: %w", sferrors.Storage("op", errors.New("x"))), http.StatusServiceUnavailable, "storage_unavailable"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := StatusFor(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("%s: want=%d/%s got=%d/%s", tc.name, tc.status, tc.code, status, code)
		}
	}
}

func TestRespondServiceErrorHidesInternalMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=%d got=%d", http.StatusInternalServerError, rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "internal error" || env.Error.Code != "internal_error" {
		t.Fatalf("envelope: got=%+v", env.Error)
	}
}

func TestRespondServiceErrorConflictHasRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, sferrors.Conflict("record activity", errors.New("lock wait exceeded")))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: want=%d got=%d", http.StatusConflict, rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After: want=1 got=%q", got)
	}
}
