package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/service"
	"github.com/optread/optread-api/pkg/response"
)

const claimsKey = "claims"

// Auth verifies the bearer token and stores the claims on the request
// context. Requests without a valid token never reach the handler.
func Auth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				response.Unauthorized(c, "Session expired, please log in again")
			} else {
				response.Unauthorized(c, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// AdminOnly rejects requests whose claims lack user-management capability.
// It must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || !claims.IsAdmin() {
			response.Forbidden(c, "Forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the verified claims set by Auth, nil if absent
func ClaimsFromContext(c *gin.Context) *domain.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*domain.Claims)
	if !ok {
		return nil
	}
	return claims
}
