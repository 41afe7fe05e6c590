package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/dto"
	"github.com/ignatzorin/delivery-backend/internal/http/handlers/common"
	"github.com/ignatzorin/delivery-backend/internal/notify"
	"github.com/ignatzorin/delivery-backend/internal/service"
)

// AdminHandler панель администратора: список, счётчики, смена статуса, уведомления.
type AdminHandler struct {
	requests *service.RequestService
	queue    *notify.Queue
}

// NewAdminHandler создаёт хэндлер.
func NewAdminHandler(requests *service.RequestService, queue *notify.Queue) *AdminHandler {
	return &AdminHandler{requests: requests, queue: queue}
}

// ListRequests обрабатывает GET /api/admin/requests?status=&q=.
func (h *AdminHandler) ListRequests(c *gin.Context) {
	view, err := h.requests.Dashboard(c.Request.Context(), c.Query("status"), c.Query("q"))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, view)
}

// Stats обрабатывает GET /api/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.requests.Stats(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, stats)
}

// UpdateStatus обрабатывает PUT /api/admin/requests/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.requests.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, result)
}

// Notifications обрабатывает GET /api/admin/notifications.
func (h *AdminHandler) Notifications(c *gin.Context) {
	common.RespondSuccess(c, http.StatusOK, h.queue.Active())
}

// DismissNotification обрабатывает DELETE /api/admin/notifications/:id.
func (h *AdminHandler) DismissNotification(c *gin.Context) {
	h.queue.Dismiss(c.Param("id"))
	c.Status(http.StatusNoContent)
}
