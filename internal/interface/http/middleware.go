package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/agrosathi/agrosathi/pkg/logger"
)

func errorHandlingMiddleware(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		apiErr := toAPIError(c.Errors.Last().Err)
		log := logger.FromContext(c.Request.Context(), base).With(
			"code", apiErr.Code,
			"status", apiErr.Status,
			"path", c.Request.URL.Path,
		)
		if apiErr.Status >= http.StatusInternalServerError {
			log.Error("request failed", "error", apiErr.Err)
		} else {
			log.Warn("request failed", "error", apiErr.Err)
		}

		c.JSON(apiErr.Status, gin.H{
			"error": gin.H{
				"code":    apiErr.Code,
				"message": apiErr.Message,
			},
		})
	}
}

// rateLimitMiddleware limits each client IP to perMinute requests with the
// given burst. Every scope keeps its own buckets, so the upload routes can be
// held to a tighter budget than the rest of the API.
func rateLimitMiddleware(scope string, perMinute, burst int, log *slog.Logger) gin.HandlerFunc {
	if perMinute <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newClientLimiter(perMinute, burst)
	retryAfter := strconv.Itoa(int(math.Ceil(60 / float64(perMinute))))
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if limiter.allow(ip, time.Now()) {
			c.Next()
			return
		}
		logger.FromContext(c.Request.Context(), log).Warn("rate limit exceeded", "scope", scope, "ip", ip, "path", c.Request.URL.Path)
		c.Header("Retry-After", retryAfter)
		fail(c, &apiError{Status: http.StatusTooManyRequests, Code: "rate_limit_exceeded", Message: "too many requests"})
	}
}

const clientIdleTTL = 5 * time.Minute

type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rateClient
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(perMinute, burst int) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*rateClient),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
	}
}

func (l *clientLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > clientIdleTTL {
		for key, client := range l.clients {
			if now.Sub(client.lastSeen) > clientIdleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	client, ok := l.clients[ip]
	if !ok {
		client = &rateClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}
