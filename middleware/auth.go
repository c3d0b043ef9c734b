package middleware

import (
	"net/http"
	"strings"

	"sitedocs/config"
	"sitedocs/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the caller's identity from a bearer token.
// Deployments that allow anonymous access let tokenless requests
// through with an empty user id; services mint a transient identity
// before any blob write.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if config.AppConfig.Auth.AllowAnonymous {
				c.Set("user_id", "")
				c.Next()
				return
			}
			utils.Error(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, http.StatusUnauthorized, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			utils.Error(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
