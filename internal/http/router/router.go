package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/delivery-backend/internal/config"
	"github.com/ignatzorin/delivery-backend/internal/http/handlers"
	"github.com/ignatzorin/delivery-backend/internal/http/middleware"
)

// Handlers набор хэндлеров, которые монтирует роутер.
type Handlers struct {
	Health   *handlers.HealthHandler
	Catalog  *handlers.CatalogHandler
	Requests *handlers.RequestHandler
	Auth     *handlers.AuthHandler
	Session  *handlers.SessionHandler
	Admin    *handlers.AdminHandler
	WS       *handlers.WSHandler
}

// SetupRouter собирает gin.Engine со всеми маршрутами.
func SetupRouter(cfg *config.Config, h Handlers, auth middleware.Authenticator) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")
	{
		api.GET("/categories", h.Catalog.ListCategories)
		api.GET("/statuses", h.Catalog.ListStatuses)
		api.POST("/requests", h.Requests.Submit)
		api.GET("/session", middleware.OptionalAuthMiddleware(auth), h.Session.Get)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", middleware.AuthMiddleware(auth), h.Auth.Logout)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(auth))
	{
		admin.GET("/requests", h.Admin.ListRequests)
		admin.PUT("/requests/:id/status", middleware.IDValidator("id"), h.Admin.UpdateStatus)
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/notifications", h.Admin.Notifications)
		admin.DELETE("/notifications/:id", middleware.IDValidator("id"), h.Admin.DismissNotification)
	}

	// Браузер не умеет передавать заголовки при открытии WebSocket, токен приходит в query
	api.GET("/ws", middleware.AuthMiddleware(auth), h.WS.Handle)

	return r
}
