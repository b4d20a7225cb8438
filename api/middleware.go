package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const requestIDHeader = "X-Request-Id"

// CORS lets the mobile app and the hosted dashboard call every route.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"authorization", "x-client-info", "apikey", "content-type"},
		ExposeHeaders:             []string{requestIDHeader},
		OptionsResponseStatusCode: http.StatusOK,
		MaxAge:                    12 * time.Hour,
	})
}

// Preflight answers OPTIONS for clients that send no Origin header.
func Preflight(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// RequestLogger writes one entry per request, tagged with a request id.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// RateLimiter limits charge attempts per client IP. rate uses the limiter
// format ("30-M"). Counters live in Redis when a client is given, in memory
// otherwise.
func RateLimiter(rate string, client *redis.Client, log *logrus.Logger) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:   "rate_limiter:charges",
			MaxRetry: 3,
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("rate limiter running without redis, counters are per instance")
		store = memorystore.NewStore()
	}

	return ginlimiter.NewMiddleware(limiter.New(store, r),
		ginlimiter.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many payment attempts, try again later"})
		}),
		ginlimiter.WithErrorHandler(func(c *gin.Context, err error) {
			log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
		}),
	), nil
}
