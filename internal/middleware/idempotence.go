package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence blocks duplicate in-flight generation requests. A repeat
// of the same POST from the same session while the first is still
// running gets 409 instead of firing another LLM call. Multipart
// uploads are skipped because their bodies are too large to hash
// cheaply and the upload tracker already rejects duplicates by
// filename.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || shouldSkipIdempotence(c) {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("pdfsight:idempotence:%s", key)
		ctx := c.Request.Context()

		_, err = rdb.Get(ctx, redisKey).Result()
		if err == nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "identical request is still being processed"})
			return
		}
		if !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		// The TTL caps how long a crashed request can block retries.
		if setErr := rdb.Set(ctx, redisKey, "0", idempotenceTTL).Err(); setErr != nil {
			c.Next()
			return
		}

		c.Next()

		// The request context may already be canceled if the client went
		// away mid-request; the key still has to be released.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb.Del(cleanupCtx, redisKey)
		cancel()
	}
}

func shouldSkipIdempotence(c *gin.Context) bool {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return true
	}
	p := strings.TrimRight(c.Request.URL.Path, "/")
	switch p {
	case "/upload", "/upload-only-file", "/session/clear", "/insights/animated":
		return true
	}
	return strings.HasPrefix(p, "/upload/")
}

// resolveIdempotenceKey hashes the request identity. An explicit header
// wins; otherwise session, path and body decide.
func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return hdr, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	if len(body) == 0 {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + SessionID(c)
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
