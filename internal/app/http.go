package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/http"
	httpH "github.com/yungbote/skillforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillforge-backend/internal/http/middleware"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Progress *httpH.ProgressHandler
	Photo    *httpH.PhotoHandler
	Practice *httpH.PracticeHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Progress: httpH.NewProgressHandler(services.Progress),
		Photo: httpH.NewPhotoHandler(httpH.PhotoHandlerDeps{
			Log:      log,
			Photos:   services.Photos,
			Practice: services.Practice,
			MaxBytes: cfg.MaxPhotoBytes,
		}),
		Practice: httpH.NewPracticeHandler(services.Practice, cfg.MaxPhotoBytes),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics, serviceName string) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		AuthMiddleware:  middleware.Auth,
		AllowedOrigins:  cfg.AllowedOrigins,
		ServiceName:     serviceName,
		Metrics:         metrics,
		HealthHandler:   handlers.Health,
		ProgressHandler: handlers.Progress,
		PhotoHandler:    handlers.Photo,
		PracticeHandler: handlers.Practice,
	})
}
