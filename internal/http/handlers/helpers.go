package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/service"
)

// sessionMeta собирает сведения о клиенте для новой сессии.
func sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.GetHeader("User-Agent"),
		IP:        c.ClientIP(),
	}
}
