package dto

import (
	"github.com/ignatzorin/delivery-backend/internal/catalog"
	"github.com/ignatzorin/delivery-backend/internal/domain/valueobject"
	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/service"
	"github.com/ignatzorin/delivery-backend/internal/session"
)

// Envelope общий формат всех ответов API.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody описание ошибки; Fields заполняется для ошибок валидации.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// StatusResponse статус с подписью, в порядке жизненного цикла.
type StatusResponse struct {
	ID    valueobject.RequestStatus `json:"id"`
	Label string                    `json:"label"`
}

// NewStatusesResponse перечисляет все статусы.
func NewStatusesResponse() []StatusResponse {
	out := make([]StatusResponse, 0, len(valueobject.Statuses))
	for _, s := range valueobject.Statuses {
		out = append(out, StatusResponse{ID: s, Label: s.Label()})
	}
	return out
}

// CategoriesResponse список категорий.
type CategoriesResponse struct {
	Categories []catalog.Category `json:"categories"`
}

// AuthResponse ответ на вход и обновление токенов.
type AuthResponse struct {
	Admin   models.AdminIdentity `json:"admin"`
	Tokens  *service.TokenPair   `json:"tokens"`
	Session SessionResponse      `json:"session"`
}

// NewAuthResponse собирает ответ из результата сервиса. Шлюз вида переводится в состояние после входа.
func NewAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		Admin:   result.Admin,
		Tokens:  result.TokenPair,
		Session: NewSessionResponse(session.New().LoginSucceeded(result.Admin)),
	}
}

// SessionResponse состояние шлюза вида для клиента.
type SessionResponse struct {
	session.Gate
	Screen session.Screen `json:"screen"`
}

// NewSessionResponse добавляет к состоянию вычисленный экран.
func NewSessionResponse(g session.Gate) SessionResponse {
	return SessionResponse{Gate: g, Screen: g.Screen()}
}
