package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/delivery-backend/internal/http/middleware"
	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
	"github.com/ignatzorin/delivery-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений администраторов.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер. Пустой allowedOrigins разрешает любой origin.
func NewWSHandler(hub *ws.Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=... Токен проверяет AuthMiddleware.
func (h *WSHandler) Handle(c *gin.Context) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		_ = c.Error(apperror.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.WithComponent("ws").WithError(err).Warn("не удалось установить websocket соединение")
		return
	}

	ws.NewClient(conn, h.hub, admin.ID).Run(c.Request.Context())
}
