package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/delivery-backend/internal/catalog"
	"github.com/ignatzorin/delivery-backend/internal/config"
	"github.com/ignatzorin/delivery-backend/internal/db"
	"github.com/ignatzorin/delivery-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/delivery-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/delivery-backend/internal/http/router"
	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/notify"
	"github.com/ignatzorin/delivery-backend/internal/repository"
	"github.com/ignatzorin/delivery-backend/internal/service"
	"github.com/ignatzorin/delivery-backend/internal/storage"
	"github.com/ignatzorin/delivery-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	mainLog := logger.WithComponent("main")

	// Подключение к базе и миграции.
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		mainLog.WithError(err).Fatal("ошибка подключения к хранилищу")
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		mainLog.WithError(err).Fatal("ошибка миграций")
	}

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, "/media", cfg.MaxUploadSizeMB)
	if err != nil {
		mainLog.WithError(err).Fatal("не удалось подготовить файловое хранилище")
	}

	// Репозитории.
	requestRepo := repository.NewDeliveryRequestRepository(dbConn)
	adminRepo := repository.NewAdminRepository(dbConn)

	// Аутентификация администратора.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(adminRepo, tokenManager)
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.Env == "production"); err != nil {
		mainLog.WithError(err).Fatal("не удалось подготовить администратора")
	}

	// Вебсокеты и уведомления.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	queue := notify.NewQueue(cfg.NotificationTTL, ws.NewNotificationSink(hub))
	defer queue.Close()

	requestService := service.NewRequestService(
		requestRepo,
		catalog.Default,
		photoStorage,
		hub,
		queue,
		cfg.PersistenceTimeout,
	)

	// HTTP хэндлеры.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Health:   httpHandlers.NewHealthHandler(dbConn, cfg.StorageBackend),
		Catalog:  httpHandlers.NewCatalogHandler(catalog.Default),
		Requests: httpHandlers.NewRequestHandler(requestService, photoStorage.MaxUploadBytes()),
		Auth:     httpHandlers.NewAuthHandler(authService),
		Session:  httpHandlers.NewSessionHandler(),
		Admin:    httpHandlers.NewAdminHandler(requestService, queue),
		WS:       httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins),
	}, authService)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			mainLog.WithError(err).Error("ошибка остановки http сервера")
		}
	})

	mainLog.WithField("port", cfg.HTTPPort).WithField("storage", cfg.StorageBackend).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		mainLog.WithError(err).Fatal("сервер завершился с ошибкой")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.WithComponent("main").WithError(err).Error("ошибка закрытия базы")
	}
}
