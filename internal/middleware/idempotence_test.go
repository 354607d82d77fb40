package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newIdempotenceRouter(t *testing.T, handler gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/generate_summary", handler)
	return r
}

func postSummary(r *gin.Engine, body string, ctx context.Context) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate_summary", strings.NewReader(body))
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotenceBlocksDuplicateInFlight(t *testing.T) {
	var once sync.Once
	entered := make(chan struct{})
	release := make(chan struct{})
	r := newIdempotenceRouter(t, func(c *gin.Context) {
		once.Do(func() { close(entered) })
		<-release
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	firstDone := make(chan int)
	go func() {
		firstDone <- postSummary(r, `{"text":"sample"}`, nil).Code
	}()
	<-entered

	if w := postSummary(r, `{"text":"sample"}`, nil); w.Code != http.StatusConflict {
		t.Fatalf("duplicate in-flight request: want 409, got %d", w.Code)
	}

	close(release)
	if code := <-firstDone; code != http.StatusOK {
		t.Fatalf("first request: want 200, got %d", code)
	}

	if w := postSummary(r, `{"text":"sample"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("repeat after completion: want 200, got %d", w.Code)
	}
}

func TestIdempotenceDifferentBodiesDoNotCollide(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	r := newIdempotenceRouter(t, func(c *gin.Context) {
		entered <- struct{}{}
		<-release
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	done := make(chan int, 2)
	go func() { done <- postSummary(r, `{"text":"a"}`, nil).Code }()
	<-entered
	go func() { done <- postSummary(r, `{"text":"b"}`, nil).Code }()
	<-entered
	close(release)

	for i := 0; i < 2; i++ {
		if code := <-done; code != http.StatusOK {
			t.Fatalf("distinct bodies must both pass, got %d", code)
		}
	}
}

func TestIdempotenceCleansUpAfterClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newIdempotenceRouter(t, func(c *gin.Context) {
		// Client goes away while the handler is still running; the key
		// must be released regardless.
		cancel()
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	postSummary(r, `{"text":"sample"}`, ctx)

	if w := postSummary(r, `{"text":"sample"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("request after a disconnected duplicate: want 200, got %d", w.Code)
	}
}
