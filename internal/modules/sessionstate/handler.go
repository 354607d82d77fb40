package sessionstate

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/middleware"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/response"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/session"
)

// Handler exposes the session-scoped key/value state so the client can
// restore page state across reloads.
type Handler struct {
	store  *session.Store
	logger *zap.Logger
}

func NewHandler(store *session.Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/session/state", h.all)
	r.GET("/session/state/:key", h.get)
	r.PUT("/session/state/:key", h.put)
	r.DELETE("/session/state/:key", h.del)
	r.POST("/session/clear", h.clear)
}

func (h *Handler) all(c *gin.Context) {
	state, err := h.store.All(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	// Values are stored as JSON; hand them back structured instead of
	// double-encoded strings.
	out := make(map[string]json.RawMessage, len(state))
	for k, v := range state {
		if json.Valid([]byte(v)) {
			out[k] = json.RawMessage(v)
			continue
		}
		encoded, _ := json.Marshal(v)
		out[k] = encoded
	}
	c.JSON(200, out)
}

func (h *Handler) get(c *gin.Context) {
	key := c.Param("key")
	raw, ok, err := h.store.GetRaw(c.Request.Context(), middleware.SessionID(c), key)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !ok {
		response.NotFoundMsg(c, "no state stored under that key")
		return
	}
	if json.Valid([]byte(raw)) {
		c.Data(200, "application/json", []byte(raw))
		return
	}
	c.JSON(200, gin.H{"value": raw})
}

// put stores the request body verbatim when it is valid JSON, else as a
// JSON string.
func (h *Handler) put(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		response.BadRequest(c, "key is required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}
	raw := string(body)
	if !json.Valid(body) {
		encoded, _ := json.Marshal(raw)
		raw = string(encoded)
	}
	if err := h.store.PutRaw(c.Request.Context(), middleware.SessionID(c), key, raw); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"stored": key})
}

func (h *Handler) del(c *gin.Context) {
	key := c.Param("key")
	if err := h.store.Delete(c.Request.Context(), middleware.SessionID(c), key); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": key})
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context(), middleware.SessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"cleared": true})
}
