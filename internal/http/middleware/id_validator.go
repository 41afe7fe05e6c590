package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// IDValidator проверяет форму идентификатора в пути. Существование проверяет хранилище.
// Использование: router.PUT("/requests/:id/status", IDValidator("id"), handler.UpdateStatus)
func IDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !idPattern.MatchString(c.Param(paramName)) {
			_ = c.Error(apperror.Validation(map[string]string{paramName: "Identifiant invalide"}))
			c.Abort()
			return
		}
		c.Next()
	}
}
