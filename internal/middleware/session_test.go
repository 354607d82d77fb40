package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/session"
)

func newSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c))
	})
	return r
}

func TestSessionIssuesCookieForNewClient(t *testing.T) {
	r := newSessionRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() == "" {
		t.Fatal("expected a session ID bound to the request")
	}

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie && c.Value != "" {
			found = true
			if !c.HttpOnly {
				t.Fatal("session cookie must be http-only")
			}
		}
	}
	if !found {
		t.Fatalf("no %s cookie set", SessionCookie)
	}
}

func TestSessionReusesValidToken(t *testing.T) {
	r := newSessionRouter()

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	sid := first.Body.String()

	var token string
	for _, c := range first.Result().Cookies() {
		if c.Name == SessionCookie {
			token = c.Value
		}
	}

	second := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	r.ServeHTTP(second, req)

	if got := second.Body.String(); got != sid {
		t.Fatalf("session ID changed across requests: %q vs %q", sid, got)
	}
	for _, c := range second.Result().Cookies() {
		if c.Name == SessionCookie {
			t.Fatal("a valid token must not be reissued")
		}
	}
}

func TestSessionReplacesInvalidToken(t *testing.T) {
	r := newSessionRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tampered"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	reissued := false
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie && c.Value != "" && c.Value != "tampered" {
			reissued = true
		}
	}
	if !reissued {
		t.Fatal("invalid token must be replaced with a fresh one")
	}
}

func TestIssuedTokenVerifies(t *testing.T) {
	token, sid, err := session.Issue(session.DefaultTTL)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := session.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != sid || !strings.Contains(sid, "-") {
		t.Fatalf("verify returned %q, issued %q", got, sid)
	}
}
