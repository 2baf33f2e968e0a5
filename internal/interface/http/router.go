package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agrosathi/agrosathi/internal/infra/config"
	"github.com/agrosathi/agrosathi/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	limits := cfg.HTTP.RateLimit
	if !limits.Enabled {
		limits = config.RateLimitConfig{}
	}
	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware("api", limits.RequestsPerMinute, limits.Burst, handler.logger))
	{
		api.GET("/healthz", handler.Health)
		api.POST("/agri/image",
			rateLimitMiddleware("upload", limits.UploadRequestsPerMinute, limits.UploadBurst, handler.logger),
			handler.DiagnoseImage,
		)
		api.POST("/agri/voice", handler.AnswerQuery)
		api.POST("/location", handler.ResolveLocation)
		api.POST("/weather/current", handler.CurrentWeather)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

// requestID propagates or assigns X-Request-ID and stores it on the request context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.FromContext(c.Request.Context(), log).Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
		)
	}
}
