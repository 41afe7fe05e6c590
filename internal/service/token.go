package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/delivery-backend/internal/models"
)

// RoleAdmin единственная роль, которую выпускает сервис.
const RoleAdmin = "admin"

// TokenPair хранит пару access/refresh токенов.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenManager отвечает за выпуск и проверку JWT.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// GeneratePair выпускает новую пару токенов и возвращает срок жизни refresh токена.
func (m *TokenManager) GeneratePair(admin *models.Admin) (*TokenPair, time.Time, error) {
	now := time.Now()
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	accessToken, err := m.createAccessToken(admin, now, accessExp)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("token: не удалось подписать access токен: %w", err)
	}

	refreshToken, err := m.createRefreshToken(admin, now, refreshExp)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("token: не удалось подписать refresh токен: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, refreshExp, nil
}

// ParseRefresh проверяет refresh токен и возвращает клеймы.
func (m *TokenManager) ParseRefresh(token string) (*jwt.RegisteredClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, m.keyFunc(m.refreshSecret))
	if err != nil {
		return nil, err
	}

	if claims, ok := parsed.Claims.(*jwt.RegisteredClaims); ok && parsed.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

// ParseAccess проверяет access токен и возвращает администратора из клеймов.
func (m *TokenManager) ParseAccess(token string) (*models.AdminIdentity, error) {
	parsed, err := jwt.Parse(token, m.keyFunc(m.accessSecret))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if role, _ := claims["role"].(string); role != RoleAdmin {
		return nil, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	adminID, err := uuid.Parse(sub)
	if err != nil {
		return nil, err
	}

	email, _ := claims["email"].(string)
	return &models.AdminIdentity{ID: adminID, Email: email}, nil
}

// keyFunc принимает только HMAC-подписи.
func (m *TokenManager) keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: неожиданный метод подписи %v", t.Header["alg"])
		}
		return secret, nil
	}
}

func (m *TokenManager) createAccessToken(admin *models.Admin, now, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   admin.ID.String(),
		"email": admin.Email,
		"role":  RoleAdmin,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

// createRefreshToken формирует refresh токен со случайным ID, чтобы токены не совпадали.
func (m *TokenManager) createRefreshToken(admin *models.Admin, now, exp time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   admin.ID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.refreshSecret)
}
