package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const rateLimitWindow = 24 * time.Hour

// IssueRateLimiter allows each client at most limit requests per day. Clients
// are told apart by user id when authenticated and by IP otherwise. Counters
// live in Redis under queuePrefix.
func IssueRateLimiter(client *redis.Client, queuePrefix string, limit int, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString(UserIDKey)
		if clientID == "" {
			clientID = "ip:" + c.ClientIP()
		}

		ctx := c.Request.Context()
		key := queuePrefix + ":" + clientID

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("rate limiter: incr failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}

		// the window starts at the first request
		if count == 1 {
			if err := client.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
				logger.Error().Err(err).Str("key", key).Msg("rate limiter: expire failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
				c.Abort()
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
