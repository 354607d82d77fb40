package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/config"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/database"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/middleware"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/upload"
	pkgcron "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/cron"
	pkgredis "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/redis"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	rc      *pkgredis.Client
	tracker *upload.Tracker
	logger  *zap.Logger
	cancel  context.CancelFunc
	sched   *pkgcron.Scheduler
}

// New initializes the application: config → DB → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RateLimit(rc.Raw()))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.Session())
	router.Use(middleware.Idempotence(rc.Raw()))
	router.Use(middleware.HTTPCache(rc.Raw(), 15*time.Second, "/files", "/documents"))

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:     cfg,
		router:  router,
		db:      db,
		rc:      rc,
		tracker: upload.NewTracker(logger),
		logger:  logger,
		cancel:  cancel,
	}
	app.registerRoutes()

	app.sched = pkgcron.New()
	registerCronJobs(app.sched, rc, cfg, logger)
	go app.sched.Start(ctx)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and waits for in-flight uploads.
func (a *App) Shutdown(ctx context.Context) {
	a.cancel()
	if err := a.tracker.Shutdown(ctx); err != nil {
		a.logger.Warn("upload tracker shutdown incomplete", zap.Error(err))
	}
}
