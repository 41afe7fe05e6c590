package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/delivery-backend/internal/logger"
)

// RequestLogger пишет одну строку на запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithComponent("http").WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if c.FullPath() == "" {
			entry = entry.WithField("path", c.Request.URL.Path)
		}

		if c.Writer.Status() >= 500 {
			entry.Warn("запрос")
			return
		}
		entry.Info("запрос")
	}
}
