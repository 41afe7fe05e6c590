package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/delivery-backend/internal/models"
	"github.com/ignatzorin/delivery-backend/internal/repository/common"
)

var (
	// ErrAdminNotFound возвращается, когда учётная запись администратора не найдена.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrSessionNotFound возвращается для неизвестного refresh токена.
	ErrSessionNotFound = errors.New("session not found")
)

// AdminRepository отвечает за таблицы admins и admin_sessions.
type AdminRepository struct {
	db    *sqlx.DB
	clock common.Clock
}

// NewAdminRepository создаёт экземпляр репозитория.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db, clock: common.SystemClock}
}

// Create сохраняет нового администратора.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	admin.CreatedAt = r.clock()

	query := r.db.Rebind(`INSERT INTO admins (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, admin.ID, admin.Email, admin.PasswordHash, admin.CreatedAt); err != nil {
		return fmt.Errorf("admin repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает администратора по email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	query := r.db.Rebind(`SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`)
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("admin repository: get by email %w", err)
	}

	return &admin, nil
}

// GetByID возвращает администратора по идентификатору.
func (r *AdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	query := r.db.Rebind(`SELECT id, email, password_hash, created_at FROM admins WHERE id = ?`)
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("admin repository: get by id %w", err)
	}

	return &admin, nil
}

// UpdatePassword меняет хеш пароля; используется при пересоздании учётки из конфигурации.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := r.db.Rebind(`UPDATE admins SET password_hash = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("admin repository: update password %w", err)
	}

	return nil
}

// CreateSession сохраняет новую refresh-сессию.
func (r *AdminRepository) CreateSession(ctx context.Context, session *models.AdminSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = r.clock()

	query := r.db.Rebind(`
		INSERT INTO admin_sessions (id, admin_id, refresh_token, user_agent, ip_address, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	if _, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.AdminID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
	); err != nil {
		return fmt.Errorf("admin repository: create session %w", err)
	}

	return nil
}

// GetSession находит сессию по refresh токену.
func (r *AdminRepository) GetSession(ctx context.Context, refreshToken string) (*models.AdminSession, error) {
	var session models.AdminSession
	query := r.db.Rebind(`
		SELECT id, admin_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM admin_sessions
		WHERE refresh_token = ?
	`)
	if err := r.db.GetContext(ctx, &session, query, refreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("admin repository: get session %w", err)
	}

	return &session, nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *AdminRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	query := r.db.Rebind(`DELETE FROM admin_sessions WHERE refresh_token = ?`)
	if _, err := r.db.ExecContext(ctx, query, refreshToken); err != nil {
		return fmt.Errorf("admin repository: delete session %w", err)
	}

	return nil
}
