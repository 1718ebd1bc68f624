package handler

import (
	"math"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewInitRateLimiter ограничивает /init: limit запросов в минуту на IP.
// При redisClient != nil счетчики общие для всех инстансов.
func NewInitRateLimiter(redisClient *redis.Client, limit uint) gin.HandlerFunc {
	if limit == 0 {
		limit = 1
	}

	var store ratelimit.Store
	if redisClient != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: redisClient,
			Rate:        time.Minute,
			Limit:       limit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: limit,
		})
	}

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			wait := int(math.Ceil(time.Until(info.ResetTime).Seconds()))
			if wait < 1 {
				wait = 1
			}
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			rateLimitExceeded(c, strconv.Itoa(wait))
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
