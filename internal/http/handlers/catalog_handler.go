package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/catalog"
	"github.com/ignatzorin/delivery-backend/internal/dto"
	"github.com/ignatzorin/delivery-backend/internal/http/handlers/common"
)

// CatalogHandler отдаёт справочники: категории и статусы.
type CatalogHandler struct {
	categories *catalog.Registry
}

// NewCatalogHandler создаёт хэндлер.
func NewCatalogHandler(categories *catalog.Registry) *CatalogHandler {
	return &CatalogHandler{categories: categories}
}

// ListCategories обрабатывает GET /api/categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	common.RespondSuccess(c, http.StatusOK, dto.CategoriesResponse{Categories: h.categories.All()})
}

// ListStatuses обрабатывает GET /api/statuses.
func (h *CatalogHandler) ListStatuses(c *gin.Context) {
	common.RespondSuccess(c, http.StatusOK, dto.NewStatusesResponse())
}
