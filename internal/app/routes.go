package app

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/analysis/ai"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/analysis/insights"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/analysis/query"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/registry"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/upload"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/sessionstate"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/storage/mirror"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/system"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/response"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/session"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/taskqueue"
)

func (a *App) registerRoutes() {
	r := a.router
	cfg := a.cfg

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	sessions := session.NewStore(a.rc, session.DefaultTTL)
	tasks := taskqueue.NewService(a.rc)
	aiSvc := ai.NewService(cfg.AI, a.logger.Named("AIService"))
	mirrorSvc := mirror.New(cfg.S3, a.logger.Named("MirrorService"))

	registrySvc := registry.NewService(a.db, a.logger.Named("RegistryService"))
	if restored := registrySvc.Restore(); restored > 0 {
		a.logger.Info("restored document registry", zap.Int("documents", restored))
	}
	extractor := upload.NewExtractor()

	// mirror.New returns a typed nil when disabled; keep the interface
	// nil in that case so callers can test against it.
	var mirrorIface upload.Mirror
	if mirrorSvc != nil {
		mirrorIface = mirrorSvc
	}
	uploadSvc := upload.NewService(
		a.tracker, extractor, registrySvc, mirrorIface,
		cfg.UploadDir(), cfg.MaxUploadBytes(),
		a.logger.Named("UploadService"),
	)

	querySvc := query.NewService(
		aiSvc, registrySvc, sessions, cfg.AI.RefineModel,
		cfg.UploadDir(), a.logger.Named("QueryService"),
	)
	insightSvc := insights.NewService(
		aiSvc, sessions, tasks, a.db,
		cfg.AI, cfg.TTS, cfg.AudioDir(),
		a.logger.Named("InsightService"),
	)

	root := r.Group("/")
	system.NewHandler(a.rc, a.db).RegisterRoutes(root)
	registry.NewHandler(registrySvc, cfg.UploadDir(), a.logger).RegisterRoutes(root)
	upload.NewHandler(uploadSvc, a.tracker, cfg.UploadDir(), a.logger).RegisterRoutes(root)
	query.NewHandler(querySvc, a.logger).RegisterRoutes(root)
	sessionstate.NewHandler(sessions, a.logger).RegisterRoutes(root)

	// Registered last: its generic POST /:task route must not shadow
	// the static routes above.
	insights.NewHandler(insightSvc, a.logger).RegisterRoutes(root)

	// Generated podcast audio is served from the audio directory.
	r.Static("/uploads/audio", cfg.AudioDir())
}
