package query

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/middleware"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/response"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/role_query", h.roleQuery)
	r.POST("/pdf_query", h.pdfQuery)
	r.POST("/pdf_query_negative", h.pdfQueryNegative)
}

type roleQueryRequest struct {
	Persona struct {
		Role string `json:"role"`
	} `json:"persona"`
	JobToBeDone struct {
		Task string `json:"task"`
	} `json:"job_to_be_done"`
	NumRanks  int           `json:"numRanks"`
	Documents []DocumentRef `json:"documents"`
}

func (h *Handler) roleQuery(c *gin.Context) {
	var req roleQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Persona.Role) == "" || strings.TrimSpace(req.JobToBeDone.Task) == "" {
		response.BadRequest(c, "persona role and job task are required")
		return
	}

	result, err := h.service.RoleQuery(
		c.Request.Context(),
		middleware.SessionID(c),
		strings.TrimSpace(req.Persona.Role),
		strings.TrimSpace(req.JobToBeDone.Task),
		req.NumRanks,
		req.Documents,
	)
	if err != nil {
		h.respondQueryError(c, err)
		return
	}
	c.JSON(200, result)
}

type pdfQueryRequest struct {
	SelectedText string        `json:"selectedText"`
	Documents    []DocumentRef `json:"documents"`
}

func (h *Handler) pdfQuery(c *gin.Context) {
	req, ok := h.bindPdfQuery(c)
	if !ok {
		return
	}

	result, err := h.service.PdfQuery(
		c.Request.Context(),
		middleware.SessionID(c),
		strings.TrimSpace(req.SelectedText),
		req.Documents,
	)
	if err != nil {
		h.respondQueryError(c, err)
		return
	}
	c.JSON(200, result)
}

func (h *Handler) pdfQueryNegative(c *gin.Context) {
	req, ok := h.bindPdfQuery(c)
	if !ok {
		return
	}

	result, err := h.service.PdfQueryNegative(
		c.Request.Context(),
		middleware.SessionID(c),
		strings.TrimSpace(req.SelectedText),
		req.Documents,
	)
	if err != nil {
		h.respondQueryError(c, err)
		return
	}
	c.JSON(200, result)
}

func (h *Handler) bindPdfQuery(c *gin.Context) (pdfQueryRequest, bool) {
	var req pdfQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.SelectedText) == "" {
		response.BadRequest(c, "selectedText is required")
		return req, false
	}
	return req, true
}

// An empty or unknown document list is not a client error shape of its
// own; it surfaces as the no-sections message.
func (h *Handler) respondQueryError(c *gin.Context, err error) {
	if err == ErrNoSections {
		response.BadRequest(c, err.Error())
		return
	}
	response.InternalError(c, err)
}
