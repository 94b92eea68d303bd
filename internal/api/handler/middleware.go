package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wantok/backend/internal/auth"
	"wantok/backend/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ctxUserID      = "userID"
	ctxAdmin       = "admin"
	adminKeyHeader = "X-Admin-Key"
)

// RequestLogger logs every request through zerolog and records HTTP metrics.
func RequestLogger(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequest(c.Request.Method, path, strconv.Itoa(status), elapsed.Seconds())

		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// CORS allows the configured origins; "*" allows any.
func CORS(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(allowed, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+adminKeyHeader)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || originAllowed(h.opts.AllowedOrigins, origin)
}

// RequireUser validates the bearer token and stores the user ID in the context.
func RequireUser(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticateUser(c, jwtSvc) {
			return
		}
		c.Next()
	}
}

// RequireUserOrAdmin accepts either the admin key or a bearer token. Admin callers are
// marked with ctxAdmin; everyone else gets ctxUserID as with RequireUser.
func RequireUserOrAdmin(jwtSvc *auth.JWTService, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got := c.GetHeader(adminKeyHeader); got != "" {
			if !adminKeyMatches(key, got) {
				fail(c, http.StatusUnauthorized, "Invalid admin key")
				return
			}
			c.Set(ctxAdmin, true)
			c.Next()
			return
		}
		if !authenticateUser(c, jwtSvc) {
			return
		}
		c.Next()
	}
}

func authenticateUser(c *gin.Context, jwtSvc *auth.JWTService) bool {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		fail(c, http.StatusUnauthorized, "Authorization token missing")
		return false
	}

	claims, err := jwtSvc.Validate(token)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid token or expired")
		return false
	}
	c.Set(ctxUserID, claims.Subject)
	return true
}

func adminKeyMatches(key, got string) bool {
	return key != "" && subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1
}

// SelfOnly rejects requests whose :id differs from the authenticated user.
func SelfOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param("id") != c.GetString(ctxUserID) {
			fail(c, http.StatusForbidden, "You can only access your own account")
			return
		}
		c.Next()
	}
}

// RequireAdmin checks the shared admin key. An empty key disables the admin API.
func RequireAdmin(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			fail(c, http.StatusServiceUnavailable, "Admin API is disabled")
			return
		}
		if !adminKeyMatches(key, c.GetHeader(adminKeyHeader)) {
			fail(c, http.StatusUnauthorized, "Invalid admin key")
			return
		}
		c.Next()
	}
}
