// Package session решает, какой экран доступен клиенту в зависимости от
// выбранного вида и состояния аутентификации администратора.
package session

import (
	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

// View вид, выбранный пользователем.
type View string

const (
	ViewUser  View = "user"
	ViewAdmin View = "admin"
)

// ParseView разбирает вид из строки запроса. Пустая строка означает user.
func ParseView(raw string) (View, error) {
	switch View(raw) {
	case "", ViewUser:
		return ViewUser, nil
	case ViewAdmin:
		return ViewAdmin, nil
	default:
		return "", apperror.Validation(map[string]string{"view": "Vue invalide"})
	}
}

// AuthState состояние аутентификации.
type AuthState string

const (
	AuthLoading         AuthState = "loading"
	AuthAuthenticated   AuthState = "authenticated"
	AuthUnauthenticated AuthState = "unauthenticated"
)

// Screen что показывать клиенту.
type Screen string

const (
	ScreenLoading   Screen = "loading"
	ScreenUser      Screen = "user"
	ScreenLogin     Screen = "login"
	ScreenDashboard Screen = "dashboard"
)

// Gate состояние шлюза. Все переходы возвращают новое значение.
type Gate struct {
	View  View                  `json:"view"`
	Auth  AuthState             `json:"auth"`
	Admin *models.AdminIdentity `json:"admin,omitempty"`
}

// New начальное состояние: проверка сессии ещё идёт, открыт пользовательский вид.
func New() Gate {
	return Gate{View: ViewUser, Auth: AuthLoading}
}

// Resolve завершает проверку сессии. nil означает, что администратор не вошёл.
func (g Gate) Resolve(admin *models.AdminIdentity) Gate {
	if admin == nil {
		g.Auth = AuthUnauthenticated
		g.Admin = nil
		return g
	}
	identity := *admin
	g.Auth = AuthAuthenticated
	g.Admin = &identity
	return g
}

// Select переключает вид.
func (g Gate) Select(view View) Gate {
	g.View = view
	return g
}

// LoginSucceeded фиксирует успешный вход и открывает вид администратора.
func (g Gate) LoginSucceeded(admin models.AdminIdentity) Gate {
	return g.Resolve(&admin).Select(ViewAdmin)
}

// LoggedOut сбрасывает аутентификацию и возвращает пользовательский вид.
func (g Gate) LoggedOut() Gate {
	return g.Resolve(nil).Select(ViewUser)
}

// Screen вычисляет экран для текущего состояния.
func (g Gate) Screen() Screen {
	switch {
	case g.Auth == AuthLoading:
		return ScreenLoading
	case g.View != ViewAdmin:
		return ScreenUser
	case g.Auth == AuthAuthenticated:
		return ScreenDashboard
	default:
		return ScreenLogin
	}
}

// IsAuthenticated сообщает, вошёл ли администратор.
func (g Gate) IsAuthenticated() bool {
	return g.Auth == AuthAuthenticated
}
