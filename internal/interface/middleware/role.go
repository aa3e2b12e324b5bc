package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/response"
)

// RequireRole allows the request only when the caller's global role is one of roles.
// It must run after Auth.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := entity.Role(c.GetString("userRole"))
		for _, r := range roles {
			if current == r {
				c.Next()
				return
			}
		}
		response.Error[any](c, http.StatusForbidden, "insufficient role", nil)
		c.Abort()
	}
}
