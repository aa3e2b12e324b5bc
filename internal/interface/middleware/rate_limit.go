package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/taskhub/pkg/response"
)

// KeyFunc builds the counter key for a request.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true for requests that skip the limiter.
type AllowFunc func(c *gin.Context) bool

func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyByIP limits per client address.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "rl:ip:" + clientIP(c) }
}

// KeyByIPAndPath limits per client address and route template.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + routeOf(c) + ":ip:" + clientIP(c)
	}
}

// KeyByUserID limits per authenticated user, or per address for anonymous calls.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString("userID"); uid != "" {
			return "rl:user:" + uid
		}
		return "rl:user:anon:ip:" + clientIP(c)
	}
}

// fixed window: the first hit in a window sets its expiry
var windowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RateLimit counts requests per key in a fixed window stored in Redis and
// answers 429 past max. It sets the X-RateLimit-* headers. Without Redis, or
// when Redis fails, requests pass.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, http.MethodOptions) || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		res, err := windowScript.Run(c.Request.Context(), rdb, []string{keyFn(c)}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			c.Next()
			return
		}
		count, ttlMs := int(res[0]), res[1]
		reset := 0
		if ttlMs > 0 {
			reset = int((time.Duration(ttlMs)*time.Millisecond + time.Second - 1) / time.Second)
		}
		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))

		if count > max {
			if reset > 0 {
				c.Header("Retry-After", strconv.Itoa(reset))
			}
			response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
