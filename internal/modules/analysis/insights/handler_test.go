package insights

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcfg "github.com/ShreyankGopal/Adobe-Hacks/internal/config"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/analysis/ai"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	svc := NewService(
		ai.NewService(appcfg.AIConfig{}, logger),
		nil, nil, nil,
		appcfg.AIConfig{}, appcfg.TTSConfig{}, t.TempDir(),
		logger,
	)
	r := gin.New()
	NewHandler(svc, logger).RegisterRoutes(r.Group("/"))
	return r, svc
}

func postInsight(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateSummaryStreamRequiresText(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := postInsight(r, "/generate_summary_stream", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing text: want 400, got %d", w.Code)
	}
}

func TestGenerateSummaryStreamBusySessionIsPlainConflict(t *testing.T) {
	r, svc := newTestRouter(t)

	// Another generation holds the session's latch.
	if !svc.latch.Acquire("") {
		t.Fatal("latch acquire must succeed")
	}
	defer svc.latch.Release("")

	w := postInsight(r, "/generate_summary_stream", `{"text":"some section text"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("busy session: want 409, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); strings.Contains(ct, "text/event-stream") {
		t.Fatalf("pre-stream errors must not switch to SSE, got %q", ct)
	}
}

func TestGenerateSummaryStreamWithoutProviderFailsBeforeStreaming(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postInsight(r, "/generate_summary_stream", `{"text":"some section text"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("no provider configured: want 500, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); strings.Contains(ct, "text/event-stream") {
		t.Fatalf("pre-stream errors must not switch to SSE, got %q", ct)
	}
}

func TestGenericTaskRejectsUnknownName(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postInsight(r, "/translate", `{"prompt":"do something"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown task: want 400, got %d: %s", w.Code, w.Body.String())
	}
}
