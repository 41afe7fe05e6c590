package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/dto"
	"github.com/ignatzorin/delivery-backend/internal/http/handlers/common"
	"github.com/ignatzorin/delivery-backend/internal/http/middleware"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
	"github.com/ignatzorin/delivery-backend/internal/service"
	"github.com/ignatzorin/delivery-backend/internal/session"
)

// AuthHandler предоставляет HTTP слой для входа администратора.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Некорректное тело не должно отличаться от неверного пароля
		common.Fail(c, apperror.ErrInvalidCredentials)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, sessionMeta(c))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, dto.NewAuthResponse(result))
}

// Refresh обрабатывает POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, sessionMeta(c))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, dto.NewAuthResponse(result))
}

// Logout обрабатывает POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if !common.BindJSON(c, &req) {
		return
	}

	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		common.Fail(c, apperror.ErrUnauthorized)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		common.Fail(c, err)
		return
	}

	gate := session.New().LoginSucceeded(*admin).LoggedOut()
	common.RespondSuccess(c, http.StatusOK, dto.NewSessionResponse(gate))
}
