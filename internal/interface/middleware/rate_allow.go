package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP lets loopback and private-range callers bypass a limiter.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip := net.ParseIP(clientIP(c))
		return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
	}
}
