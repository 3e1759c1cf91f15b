package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/skillforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillforge-backend/internal/http/middleware"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	AllowedOrigins []string
	// ServiceName enables otelgin spans when set.
	ServiceName string
	Metrics     *observability.Metrics

	ProgressHandler *httpH.ProgressHandler
	PhotoHandler    *httpH.PhotoHandler
	PracticeHandler *httpH.PracticeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Photo bytes (public; filenames are unguessable)
	if cfg.PhotoHandler != nil {
		r.GET("/uploads/photos/:filename", cfg.PhotoHandler.Serve)
	}

	protected := r.Group("/api")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Progress + achievements
		if cfg.ProgressHandler != nil {
			protected.GET("/progress", cfg.ProgressHandler.GetProgress)
			protected.POST("/progress/activity", cfg.ProgressHandler.RecordActivity)
			protected.POST("/progress/xp", cfg.ProgressHandler.AwardXP)
			protected.GET("/achievements", cfg.ProgressHandler.ListAchievements)
			protected.POST("/achievements/evaluate", cfg.ProgressHandler.EvaluateAchievements)
		}

		// Photos
		if cfg.PhotoHandler != nil {
			protected.POST("/photos", cfg.PhotoHandler.Upload)
			protected.GET("/photos", cfg.PhotoHandler.List)
			protected.DELETE("/photos/:id", cfg.PhotoHandler.Delete)
		}

		// Practice sessions
		if cfg.PracticeHandler != nil {
			protected.POST("/practice/sessions", cfg.PracticeHandler.CompleteSession)
			protected.GET("/practice/sessions", cfg.PracticeHandler.ListSessions)
		}
	}

	return r
}
