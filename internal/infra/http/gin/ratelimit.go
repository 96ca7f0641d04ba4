package ginserver

import (
	"math"
	"net/http"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	gin "github.com/gin-gonic/gin"
)

// NewAuthRateLimiter allows limit requests per client IP within window. A zero
// limit returns nil.
func NewAuthRateLimiter(window time.Duration, limit uint) gin.HandlerFunc {
	if limit == 0 || window <= 0 {
		return nil
	}
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  window,
		Limit: limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			retry := math.Ceil(time.Until(info.ResetTime).Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(int(retry)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Message: "Too many requests, try again later"})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
