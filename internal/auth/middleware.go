package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// identityKey is the gin context key holding the authenticated username.
const identityKey = "auth.username"

// RequireAuth verifies the bearer token on protected routes and injects the
// caller's username into the request context. The Authorization header
// carries the raw token string as its entire value; there is no
// "Bearer " scheme prefix. Missing or invalid tokens terminate the request
// with a 401 JSON body before any handler runs.
func RequireAuth(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		username, err := tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(identityKey, username)
		c.Next()
	}
}

// UsernameFromContext returns the username set by RequireAuth, or "" when
// the request did not pass through it.
func UsernameFromContext(c *gin.Context) string {
	username, _ := c.Value(identityKey).(string)
	return username
}
