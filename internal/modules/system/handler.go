package system

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/nativelog"
	redisc "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/redis"
)

var startedAt = time.Now()

// Handler serves liveness and dependency health.
type Handler struct {
	rc *redisc.Client
	db *gorm.DB
}

func NewHandler(rc *redisc.Client, db *gorm.DB) *Handler {
	return &Handler{rc: rc, db: db}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.health)
	r.GET("/ping", h.ping)
	r.GET("/log/stream", h.logStream)
}

// logStream tails the daily log file over server-sent events.
func (h *Handler) logStream(c *gin.Context) {
	id, frames := nativelog.Subscribe(0)
	defer nativelog.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			payload, err := json.Marshal(gin.H{"line": frame})
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			c.Writer.Flush()
		}
	}
}

func (h *Handler) ping(c *gin.Context) {
	c.String(200, "pong")
}

func (h *Handler) health(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if h.rc != nil {
		if err := h.rc.Raw().Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			checks["mysql"] = err.Error()
			healthy = false
		} else {
			checks["mysql"] = "ok"
		}
	}

	status := 200
	state := "ok"
	if !healthy {
		status = 503
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"uptime": time.Since(startedAt).Round(time.Second).String(),
		"checks": checks,
	})
}
