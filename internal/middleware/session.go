package middleware

import (
	"net/http"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "pdfsight_session"
	// SessionIDKey is the gin context key holding the verified session ID.
	SessionIDKey = "sessionID"
)

// Session guarantees every request is bound to a session: an incoming
// valid token is reused, anything else gets a freshly issued one. The
// session scopes the query-result cache and insight state.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
			if sid, err := session.Verify(token); err == nil {
				c.Set(SessionIDKey, sid)
				c.Next()
				return
			}
		}

		token, sid, err := session.Issue(session.DefaultTTL)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, token, int(session.DefaultTTL.Seconds()), "/", "", false, true)
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// SessionID returns the session ID bound to the request.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(SessionIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
