package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/delivery-backend/internal/dto"
	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Ошибки приложения отдаются с их кодом и сообщением, всё остальное маскируется.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := renderError(err)

		entry := logger.WithComponent("http").WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("ошибка запроса")
		case apperror.IsNotFound(err):
			// Клиент сослался на то, чего нет: скорее всего, устаревший список
			entry.Warn("сущность не найдена")
		default:
			entry.Debug("отклонённый запрос")
		}

		c.JSON(status, dto.Envelope{Success: false, Error: body})
	}
}

func renderError(err error) (int, *dto.ErrorBody) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, &dto.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Fields:  appErr.Fields,
		}
	}

	return http.StatusInternalServerError, &dto.ErrorBody{
		Code:    string(apperror.ErrCodeInternal),
		Message: "Erreur interne du serveur",
	}
}
