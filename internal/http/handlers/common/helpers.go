package common

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/dto"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

// BindJSON разбирает тело запроса. При ошибке кладёт ошибку валидации в контекст и возвращает false.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apperror.Wrap(err, apperror.ErrCodeBadRequest, "Requête invalide"))
		return false
	}
	return true
}

// Fail передаёт ошибку в ErrorHandler.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// RespondSuccess отправляет данные в стандартной обёртке.
func RespondSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, dto.Envelope{Success: true, Data: data})
}
