package upload

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/response"
)

type Handler struct {
	service   *Service
	tracker   *Tracker
	uploadDir string
	logger    *zap.Logger
}

func NewHandler(service *Service, tracker *Tracker, uploadDir string, logger *zap.Logger) *Handler {
	return &Handler{service: service, tracker: tracker, uploadDir: uploadDir, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", h.upload)
	r.POST("/upload-only-file", h.uploadOnly)
	r.GET("/uploads/:filename", h.serveFile)
	r.GET("/upload/progress", h.progress)
	r.GET("/upload/progress/stream", h.progressStream)
	r.POST("/upload/:name/cancel", h.cancel)
}

// upload stores the PDF and runs full outline and section extraction.
func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "no file provided")
		return
	}
	doc, err := h.service.Process(file, true)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}
	headings := 0
	if doc.Outline != nil {
		headings = len(doc.Outline.Outline)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": doc.ServerFilename,
		"outline":  doc.Outline,
		"sections": doc.Sections,
		"message":  fmt.Sprintf("Successfully processed PDF and found %d headings and %d sections", headings, len(doc.Sections)),
	})
}

// uploadOnly stores the PDF without extraction, for files that only
// need to be viewable.
func (h *Handler) uploadOnly(c *gin.Context) {
	file, err := c.FormFile("pdf")
	if err != nil {
		response.BadRequest(c, "no file provided")
		return
	}
	doc, err := h.service.Process(file, false)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": doc.ServerFilename,
	})
}

func (h *Handler) respondUploadError(c *gin.Context, err error) {
	msg := err.Error()
	switch {
	case err == ErrCancelled:
		response.BadRequest(c, msg)
	case strings.Contains(msg, "limit"):
		response.PayloadTooLarge(c, msg)
	case strings.Contains(msg, "not a valid PDF"), strings.Contains(msg, "invalid filename"), strings.Contains(msg, "file type"):
		response.BadRequest(c, msg)
	default:
		response.InternalError(c, err)
	}
}

// serveFile hands a stored PDF (or its annotated variant) back to the
// viewer. Only bare filenames are accepted.
func (h *Handler) serveFile(c *gin.Context) {
	name := c.Param("filename")
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		response.BadRequest(c, "invalid filename")
		return
	}
	path := filepath.Join(h.uploadDir, name)
	if _, err := os.Stat(path); err != nil {
		response.NotFoundMsg(c, "file not found")
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

func (h *Handler) progress(c *gin.Context) {
	response.OK(c, h.tracker.Snapshot())
}

// progressStream pushes the live task table over SSE until the client
// disconnects.
func (h *Handler) progressStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	send := func(snap map[string]TaskStatus) bool {
		payload, err := json.Marshal(snap)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	updates, unsubscribe := h.tracker.Subscribe()
	defer unsubscribe()

	if !send(h.tracker.Snapshot()) {
		return
	}
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok || !send(snap) {
				return
			}
		}
	}
}

func (h *Handler) cancel(c *gin.Context) {
	name := c.Param("name")
	if !h.tracker.Cancel(name) {
		response.NotFoundMsg(c, "no running upload with that name")
		return
	}
	response.OK(c, gin.H{"cancelled": name})
}
