package middlewares

import (
	"net/http"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/daikurogo/ipywidgets/tool"
)

// limiterIdleTTL drops the limiter of a client that stayed quiet this long.
const limiterIdleTTL = 10 * time.Minute

// RateLimitPerIP allows perSec requests per second per client IP with a burst of burst.
// A non-positive perSec disables limiting.
func RateLimitPerIP(perSec float64, burst int) gin.HandlerFunc {
	if perSec <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiters := ttlworker.NewCache[string, *rate.Limiter](limiterIdleTTL)
	// guards get-or-create so concurrent first requests share one limiter
	var mu sync.Mutex
	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		lim := limiters.Get(ip)
		if lim == nil {
			lim = rate.NewLimiter(rate.Limit(perSec), burst)
		}
		limiters.Set(ip, lim)
		mu.Unlock()
		if !lim.Allow() {
			tool.DefaultLogger.Warnf("[RateLimit] rejecting %s %s from %s", c.Request.Method, c.Request.URL.Path, ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, tool.FastReturnError("Too many requests"))
			return
		}
		c.Next()
	}
}
