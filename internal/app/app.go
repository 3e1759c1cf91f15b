package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/db"
	"github.com/yungbote/skillforge-backend/internal/http"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/pkg/envutil"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

const serviceName = "skillforge"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init()

	dbService, err := db.Open(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if envutil.Bool("DB_AUTO_MIGRATE", true) {
		if err := dbService.AutoMigrateAll(); err != nil {
			_ = dbService.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := dbService.DB()

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, reposet)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	otelService := ""
	if envutil.Bool("OTEL_ENABLED", false) {
		otelService = serviceName
	}
	server := wireServer(log, cfg, handlerset, middleware, metrics, otelService)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Services.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
