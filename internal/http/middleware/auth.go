package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

// ContextAdminKey ключ gin.Context для вошедшего администратора.
const ContextAdminKey = "admin"

// Authenticator проверяет access токен.
type Authenticator interface {
	Authenticate(accessToken string) (*models.AdminIdentity, error)
}

// AuthMiddleware пропускает только запросы с валидным access токеном администратора.
// Токен берётся из заголовка Authorization, а для websocket из параметра token.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			_ = c.Error(apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		admin, err := auth.Authenticate(raw)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, admin)
		c.Next()
	}
}

// OptionalAuthMiddleware кладёт администратора в контекст, если токен валиден, и никогда не отказывает.
func OptionalAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := BearerToken(c); raw != "" {
			if admin, err := auth.Authenticate(raw); err == nil {
				c.Set(ContextAdminKey, admin)
			}
		}
		c.Next()
	}
}

// BearerToken извлекает токен из заголовка или параметра запроса.
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// CurrentAdmin возвращает администратора из контекста.
func CurrentAdmin(c *gin.Context) (*models.AdminIdentity, bool) {
	raw, exists := c.Get(ContextAdminKey)
	if !exists {
		return nil, false
	}
	admin, ok := raw.(*models.AdminIdentity)
	return admin, ok && admin != nil
}
