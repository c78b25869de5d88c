package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"saludclara-server/internal/config"
	"saludclara-server/internal/utils"
)

const identityKey = "identity"

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		// Set caller identity in context for downstream handlers
		c.Set(identityKey, claims.Identity())

		c.Next()
	}
}

// OptionalAuthMiddleware resolves an identity when a valid bearer token is
// present but lets the request through either way. Booking degrades to
// local-only mode without a credential, so anonymous access stays allowed.
func OptionalAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret); err == nil {
				c.Set(identityKey, claims.Identity())
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// GetIdentityFromContext returns the authenticated caller identity.
func GetIdentityFromContext(c *gin.Context) (utils.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return utils.Identity{}, false
	}
	identity, ok := value.(utils.Identity)
	return identity, ok
}
