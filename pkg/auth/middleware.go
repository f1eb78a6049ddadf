package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware rejects requests without a valid bearer token
// signed by svc, and stores its claims in the Gin context under
// "claims" for handlers to read.
func JWTAuthMiddleware(svc *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authorization token required",
				"code":  "AUTH_TOKEN_MISSING",
			})
			c.Abort()
			return
		}

		claims, err := svc.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"code":  "AUTH_TOKEN_INVALID",
			})
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// RequireScope builds on JWTAuthMiddleware's stored claims and aborts
// with 403 if the caller's token lacks scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "authentication context not found",
				"code":  "AUTH_CONTEXT_MISSING",
			})
			c.Abort()
			return
		}

		if !claims.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "insufficient scope",
				"code":     "AUTH_INSUFFICIENT_SCOPE",
				"required": scope,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// CurrentClaims retrieves the claims JWTAuthMiddleware stored in c.
func CurrentClaims(c *gin.Context) (*ServiceClaims, bool) {
	value, exists := c.Get("claims")
	if !exists {
		return nil, false
	}
	claims, ok := value.(*ServiceClaims)
	return claims, ok
}
