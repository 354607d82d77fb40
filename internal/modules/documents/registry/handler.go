package registry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/pagination"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/response"
)

type Handler struct {
	service   *Service
	uploadDir string
	logger    *zap.Logger
}

func NewHandler(service *Service, uploadDir string, logger *zap.Logger) *Handler {
	return &Handler{service: service, uploadDir: uploadDir, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/files", h.listFiles)
	r.GET("/documents", h.listDocuments)
	r.GET("/documents/archive", h.archive)
	r.GET("/documents/:id", h.getDocument)
	r.DELETE("/documents/:id", h.deleteDocument)
}

type fileEntry struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

// listFiles serves the legacy flat listing used by the library sidebar.
func (h *Handler) listFiles(c *gin.Context) {
	docs := h.service.List()
	files := make([]fileEntry, 0, len(docs))
	for _, d := range docs {
		files = append(files, fileEntry{
			Filename:   d.ServerFilename,
			Size:       d.SizeBytes,
			UploadedAt: d.UploadedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(200, gin.H{
		"success": true,
		"files":   files,
		"count":   len(files),
	})
}

func (h *Handler) listDocuments(c *gin.Context) {
	response.OK(c, h.service.List())
}

// archive pages through the database mirror.
func (h *Handler) archive(c *gin.Context) {
	rows, page, err := h.service.ArchivePage(pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, page)
}

func (h *Handler) getDocument(c *gin.Context) {
	doc, ok := h.service.FindByID(c.Param("id"))
	if !ok {
		response.NotFoundMsg(c, "document not found")
		return
	}
	response.OK(c, doc)
}

// deleteDocument drops the document from the registry and removes its
// stored file plus any annotated variant.
func (h *Handler) deleteDocument(c *gin.Context) {
	doc, ok := h.service.Remove(c.Param("id"))
	if !ok {
		response.NotFoundMsg(c, "document not found")
		return
	}

	if name := strings.TrimSpace(doc.ServerFilename); name != "" && name == filepath.Base(name) {
		for _, f := range []string{name, "annotated_" + name} {
			if err := os.Remove(filepath.Join(h.uploadDir, f)); err != nil && !os.IsNotExist(err) {
				h.logger.Warn("stored file removal failed", zap.String("file", f), zap.Error(err))
			}
		}
	}
	response.OK(c, gin.H{"deleted": doc.ID})
}
