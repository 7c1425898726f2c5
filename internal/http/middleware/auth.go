// README: Firebase ID token authentication; exposes the caller's uid and role to handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kwenda/internal/infra"
)

const (
	ctxUID  = "caller_uid"
	ctxRole = "caller_role"
)

// Auth rejects requests without a valid "Authorization: Bearer <id token>".
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUID, token.UID)
		if role, ok := token.Claims["role"].(string); ok {
			c.Set(ctxRole, role)
		}
		c.Next()
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

// CallerRole is the "role" custom claim, or "" when absent.
func CallerRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// RequireRole aborts with 403 unless the caller has one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CallerRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: role " + strings.Join(roles, " or ") + " required"})
	}
}
