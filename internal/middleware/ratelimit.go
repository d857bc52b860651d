package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/pkg/errors"
	"github.com/jeromedesantos12/app-circle/pkg/logger"
	"github.com/jeromedesantos12/app-circle/pkg/response"
)

// RateLimit limits requests per (clientIP,path) within a fixed window. Counters
// live in the shared cache store so the limit holds across instances. A store
// failure lets the request through rather than failing it.
func RateLimit(store cache.Store, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "rate:" + c.ClientIP() + "|" + c.FullPath()

		count, resetIn, err := store.IncrementWithTTL(c.Request.Context(), key, window)
		if err != nil {
			logger.WithModule("http").Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := maxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if int(count) > maxRequests {
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
