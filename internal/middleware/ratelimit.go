package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	rds "github.com/goldierill/board/internal/pkg/redis"
)

const (
	rateLimitWindow = time.Second
	rateLimitMax    = 50
)

// RateLimit throttles anonymous clients per IP using a fixed Redis
// window. Authenticated requests bypass the limit. When Redis is down
// the limiter fails open.
func RateLimit(client *rds.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		ctx := c.Request.Context()

		count, err := client.Raw().Incr(ctx, key).Result()
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			client.Raw().Expire(ctx, key, rateLimitWindow)
		}
		if count > rateLimitMax {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":    0,
				"code":  http.StatusTooManyRequests,
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}
