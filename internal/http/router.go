package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, chatH *ChatHandler) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", chatH.Health)
	api.POST("/chat", chatH.Chat)
	api.GET("/conversations", chatH.ListConversations)
	api.GET("/conversations/:id/messages", chatH.ListMessages)

	return r
}

// zapLoggerMiddleware registra cada request con un request id propio.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
