package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/dto"
	"github.com/ignatzorin/delivery-backend/internal/http/handlers/common"
	"github.com/ignatzorin/delivery-backend/internal/http/middleware"
	"github.com/ignatzorin/delivery-backend/internal/session"
)

// SessionHandler отдаёт клиенту состояние шлюза вида.
type SessionHandler struct{}

// NewSessionHandler создаёт хэндлер.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get обрабатывает GET /api/session?view=user|admin. Токен необязателен.
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := session.ParseView(c.Query("view"))
	if err != nil {
		common.Fail(c, err)
		return
	}

	// Запрос сам по себе и есть проверка сессии, поэтому loading сразу разрешается
	gate := session.New().Select(view)
	if admin, ok := middleware.CurrentAdmin(c); ok {
		gate = gate.Resolve(admin)
	} else {
		gate = gate.Resolve(nil)
	}

	common.RespondSuccess(c, http.StatusOK, dto.NewSessionResponse(gate))
}
