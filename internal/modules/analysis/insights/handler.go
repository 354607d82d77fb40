package insights

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/middleware"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/markdown"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/response"
)

// revealInterval paces the per-character reveal stream.
const revealInterval = 20 * time.Millisecond

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/generate_summary", h.generateSummary)
	r.POST("/generate_summary_stream", h.generateSummaryStream)
	r.POST("/generate_didyouknow", h.generateDidYouKnow)
	r.POST("/generate_podcast", h.generatePodcast)
	r.POST("/generate_podcast_async", h.generatePodcastAsync)
	r.POST("/podcast", h.podcastFromPrompt)
	r.GET("/tasks/:id", h.taskStatus)
	r.POST("/tasks/:id/cancel", h.cancelTask)

	r.POST("/insights/section", h.sectionInsight)
	r.GET("/insights/reveal", h.reveal)
	r.POST("/insights/animated", h.markAnimated)

	r.POST("/:task", h.genericTask)
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) bindText(c *gin.Context) (string, bool) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		response.BadRequest(c, "text is required")
		return "", false
	}
	return req.Text, true
}

func (h *Handler) generateSummary(c *gin.Context) {
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	insight, err := h.service.GenerateSummary(c.Request.Context(), middleware.SessionID(c), text)
	if err != nil {
		h.respondInsightError(c, err)
		return
	}
	h.respondContent(c, "summary", insight.Content)
}

// generateSummaryStream answers over SSE, pushing tokens as the
// provider produces them and a final event carrying the whole text.
// Errors before the first token still get a plain JSON status.
func (h *Handler) generateSummaryStream(c *gin.Context) {
	text, ok := h.bindText(c)
	if !ok {
		return
	}

	streaming := false
	send := func(payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		if !streaming {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			streaming = true
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		c.Writer.Flush()
	}

	insight, err := h.service.GenerateSummaryStream(
		c.Request.Context(), middleware.SessionID(c), text,
		func(token string) { send(gin.H{"chunk": token}) },
	)
	if err != nil {
		if !streaming {
			h.respondInsightError(c, err)
			return
		}
		send(gin.H{"error": err.Error()})
		return
	}
	send(gin.H{"done": true, "summary": insight.Content})
}

func (h *Handler) generateDidYouKnow(c *gin.Context) {
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	insight, err := h.service.GenerateDidYouKnow(c.Request.Context(), middleware.SessionID(c), text)
	if err != nil {
		h.respondInsightError(c, err)
		return
	}
	h.respondContent(c, "didYouKnow", insight.Content)
}

func (h *Handler) generatePodcast(c *gin.Context) {
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	insight, err := h.service.GeneratePodcast(c.Request.Context(), middleware.SessionID(c), text)
	if err != nil {
		h.respondInsightError(c, err)
		return
	}
	c.JSON(200, gin.H{
		"script":    insight.Content,
		"audio_url": insight.AudioURL,
	})
}

type podcastRequest struct {
	PodcastInput string `json:"podcast_input"`
	Prompt       string `json:"prompt"`
}

// podcastFromPrompt accepts a free-form prompt instead of query output
// text and answers with the same script + audio shape.
func (h *Handler) podcastFromPrompt(c *gin.Context) {
	var req podcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	input := strings.TrimSpace(req.PodcastInput)
	if input == "" {
		input = strings.TrimSpace(req.Prompt)
	}
	if input == "" {
		response.BadRequest(c, "podcast_input is required")
		return
	}

	insight, err := h.service.GeneratePodcast(c.Request.Context(), middleware.SessionID(c), input)
	if err != nil {
		h.respondInsightError(c, err)
		return
	}
	c.JSON(200, gin.H{
		"script":    insight.Content,
		"audio_url": insight.AudioURL,
	})
}

func (h *Handler) generatePodcastAsync(c *gin.Context) {
	text, ok := h.bindText(c)
	if !ok {
		return
	}
	task, err := h.service.EnqueuePodcast(c.Request.Context(), middleware.SessionID(c), text)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Accepted(c, gin.H{"task_id": task.ID, "status": task.Status})
}

func (h *Handler) taskStatus(c *gin.Context) {
	task, err := h.service.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil {
		response.NotFoundMsg(c, "task not found")
		return
	}
	response.OK(c, task)
}

// cancelTask aborts a queued task that has not started running.
func (h *Handler) cancelTask(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.tasks.Cancel(c.Request.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.Conflict(c, err.Error())
		return
	}
	response.OK(c, gin.H{"cancelled": id})
}

type sectionInsightRequest struct {
	Document     string `json:"document"`
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title"`
	Text         string `json:"text"`
}

func (h *Handler) sectionInsight(c *gin.Context) {
	var req sectionInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Document) == "" || strings.TrimSpace(req.Text) == "" {
		response.BadRequest(c, "document and text are required")
		return
	}
	key, content, err := h.service.GenerateSectionInsight(
		c.Request.Context(), middleware.SessionID(c),
		req.Document, req.PageNumber, req.SectionTitle, req.Text,
	)
	if err != nil {
		h.respondInsightError(c, err)
		return
	}
	c.JSON(200, gin.H{"key": key, "insight": content})
}

// reveal streams a stored section insight character by character over
// SSE. Sections that already played their animation arrive in one
// chunk instead.
func (h *Handler) reveal(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		response.BadRequest(c, "key is required")
		return
	}
	sessionID := middleware.SessionID(c)
	content, ok := h.service.SectionInsight(c.Request.Context(), sessionID, key)
	if !ok {
		response.NotFoundMsg(c, "no insight stored for that section")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	send := func(payload interface{}) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if h.service.IsAnimated(c.Request.Context(), sessionID, key) {
		send(gin.H{"chunk": content, "done": true})
		return
	}

	ticker := time.NewTicker(revealInterval)
	defer ticker.Stop()

	for _, r := range content {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
		if !send(gin.H{"chunk": string(r)}) {
			return
		}
	}
	send(gin.H{"done": true})
	h.service.MarkAnimated(c.Request.Context(), sessionID, key)
}

type animatedRequest struct {
	Key string `json:"key"`
}

func (h *Handler) markAnimated(c *gin.Context) {
	var req animatedRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Key) == "" {
		response.BadRequest(c, "key is required")
		return
	}
	h.service.MarkAnimated(c.Request.Context(), middleware.SessionID(c), req.Key)
	response.OK(c, gin.H{"animated": req.Key})
}

type genericTaskRequest struct {
	Prompt string `json:"prompt"`
	Format string `json:"format"`
}

// genericTask serves POST /{task} for the lightweight generators.
func (h *Handler) genericTask(c *gin.Context) {
	task := c.Param("task")
	var req genericTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		response.BadRequest(c, "prompt is required")
		return
	}

	result, err := h.service.GenerateFromPrompt(c.Request.Context(), task, req.Prompt)
	if err != nil {
		if strings.HasPrefix(err.Error(), "unknown task") {
			response.BadRequest(c, err.Error())
			return
		}
		h.respondInsightError(c, err)
		return
	}

	if strings.EqualFold(req.Format, "html") {
		if html, err := markdown.Render(result); err == nil {
			c.JSON(200, gin.H{"response": result, "html": html})
			return
		}
	}
	c.JSON(200, gin.H{"response": result})
}

func (h *Handler) respondContent(c *gin.Context, field, content string) {
	c.JSON(200, gin.H{field: content})
}

func (h *Handler) respondInsightError(c *gin.Context, err error) {
	if err == ErrBusy {
		response.Conflict(c, err.Error())
		return
	}
	response.InternalError(c, err)
}
