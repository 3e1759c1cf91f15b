package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/skillforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillforge-backend/internal/http/middleware"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

func TestRouterProtectsAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth, err := services.NewAuthService(logger.Nop(), "secret")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	r := NewRouter(RouterConfig{
		Log:             logger.Nop(),
		AuthMiddleware:  httpMW.NewAuthMiddleware(logger.Nop(), auth),
		Metrics:         observability.NewMetrics(),
		HealthHandler:   httpH.NewHealthHandler(nil),
		ProgressHandler: httpH.NewProgressHandler(nil),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated progress: want=401 got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: want=200 got=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sf_api_requests_total") {
		t.Fatalf("metrics body missing request counter:\n%s", rec.Body.String())
	}
}
