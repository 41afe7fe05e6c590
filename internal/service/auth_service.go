package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
	"github.com/ignatzorin/delivery-backend/internal/repository"
	"github.com/ignatzorin/delivery-backend/internal/validation"
)

// AdminRepository описывает зависимости AuthService от слоя хранилища.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreateSession(ctx context.Context, session *models.AdminSession) error
	GetSession(ctx context.Context, refreshToken string) (*models.AdminSession, error)
	DeleteSession(ctx context.Context, refreshToken string) error
}

// AuthService отвечает за вход администратора и его сессии.
type AuthService struct {
	repo         AdminRepository
	tokenManager *TokenManager
	now          func() time.Time
	compareHash  func(hash, password []byte) error
}

// dummyPasswordHash хэш, с которым сравнивается пароль для неизвестного email,
// чтобы время ответа не выдавало существование учётной записи.
var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("delivery-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic("auth service: не удалось подготовить фиктивный хэш: " + err.Error())
	}
	return hash
})

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// SessionMeta сведения о клиенте, сохраняемые вместе с сессией.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// AuthResult возвращает итог авторизации.
type AuthResult struct {
	Admin     models.AdminIdentity
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AdminRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
		now:          time.Now,
		compareHash:  bcrypt.CompareHashAndPassword,
	}
}

// Login проверяет учётные данные и возвращает токены.
// Неизвестный email, неверный пароль и некорректный email дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta SessionMeta) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil || in.Password == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			_ = s.compareHash(dummyPasswordHash(), []byte(in.Password))
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Persistence(fmt.Errorf("auth service: %w", err), "Service temporairement indisponible")
	}

	if err := s.compareHash([]byte(admin.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	tokenPair, err := s.startSession(ctx, admin, meta)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("auth").WithField("admin_id", admin.ID).Info("администратор вошёл")

	return &AuthResult{
		Admin:     models.AdminIdentity{ID: admin.ID, Email: admin.Email},
		TokenPair: tokenPair,
	}, nil
}

// Refresh выпускает новую пару токенов и заменяет сессию.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta SessionMeta) (*AuthResult, error) {
	claims, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.ErrSessionExpired
	}

	session, err := s.repo.GetSession(ctx, oldToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.ErrSessionExpired
		}
		return nil, apperror.Persistence(fmt.Errorf("auth service: %w", err), "Service temporairement indisponible")
	}
	if !session.ExpiresAt.After(s.now()) || session.AdminID.String() != claims.Subject {
		return nil, apperror.ErrSessionExpired
	}

	admin, err := s.repo.GetByID(ctx, session.AdminID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, apperror.ErrSessionExpired
		}
		return nil, apperror.Persistence(fmt.Errorf("auth service: %w", err), "Service temporairement indisponible")
	}

	if err := s.repo.DeleteSession(ctx, oldToken); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("auth service: %w", err), "Service temporairement indisponible")
	}

	tokenPair, err := s.startSession(ctx, admin, meta)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Admin:     models.AdminIdentity{ID: admin.ID, Email: admin.Email},
		TokenPair: tokenPair,
	}, nil
}

// Logout удаляет сессию. Неизвестный токен не ошибка.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		return apperror.Persistence(fmt.Errorf("auth service: %w", err), "Service temporairement indisponible")
	}
	return nil
}

// Authenticate проверяет access токен.
func (s *AuthService) Authenticate(accessToken string) (*models.AdminIdentity, error) {
	identity, err := s.tokenManager.ParseAccess(accessToken)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}
	return identity, nil
}

// EnsureAdmin создаёт администратора из конфигурации или обновляет его пароль.
// В production слабый пароль не принимается.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string, production bool) error {
	log := logger.WithComponent("auth")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		log.Warn("ADMIN_EMAIL или ADMIN_PASSWORD не заданы, администратор не создан")
		return nil
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("auth service: ADMIN_EMAIL: %w", err)
	}
	if production {
		if err := validation.ValidatePassword(password); err != nil {
			return fmt.Errorf("auth service: ADMIN_PASSWORD: %w", err)
		}
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrAdminNotFound) {
		return fmt.Errorf("auth service: не удалось найти администратора: %w", err)
	}

	if existing != nil {
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) == nil {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
		}
		if err := s.repo.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
			return fmt.Errorf("auth service: не удалось обновить пароль: %w", err)
		}
		log.WithField("email", email).Info("пароль администратора обновлён")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	if err := s.repo.Create(ctx, &models.Admin{Email: email, PasswordHash: string(hash)}); err != nil {
		return fmt.Errorf("auth service: не удалось создать администратора: %w", err)
	}

	log.WithField("email", email).Info("администратор создан")
	return nil
}

func (s *AuthService) startSession(ctx context.Context, admin *models.Admin, meta SessionMeta) (*TokenPair, error) {
	tokenPair, refreshExp, err := s.tokenManager.GeneratePair(admin)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Erreur interne")
	}

	session := &models.AdminSession{
		AdminID:      admin.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp.UTC(),
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		session.UserAgent = &ua
	}
	if meta.IP != "" {
		ip := meta.IP
		session.IPAddress = &ip
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("auth service: %w", err), "Service temporairement indisponible")
	}

	return tokenPair, nil
}
