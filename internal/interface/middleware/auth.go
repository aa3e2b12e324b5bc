package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/taskhub/pkg/helpers"
	"github.com/oksasatya/taskhub/pkg/response"
)

func unauthorized(c *gin.Context, msg string) {
	response.Error[any](c, http.StatusUnauthorized, msg, nil)
	c.Abort()
}

// Auth validates the access token (cookie, Bearer header or ?token=) and, when
// Redis is configured, requires the token's session id to match the active
// session hash. It sets userID, userRole, userName and userEmail.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.AccessTokenFrom(c)
		if token == "" {
			unauthorized(c, "missing access token")
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			unauthorized(c, "invalid access token")
			return
		}

		role := claims.Role
		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), helpers.KeySession(claims.UserID)).Result()
			if err != nil || len(data) == 0 {
				unauthorized(c, "session not found")
				return
			}
			if data["sid"] != claims.SessionID {
				unauthorized(c, "session expired")
				return
			}
			// the session hash follows role changes before the token does
			if r := data["role"]; r != "" {
				role = r
			}
			c.Set("userName", data["name"])
			c.Set("userEmail", data["email"])
		}

		c.Set("userID", claims.UserID)
		c.Set("userRole", role)
		c.Next()
	}
}
