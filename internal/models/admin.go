package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin учётная запись администратора.
type Admin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AdminSession сохранённая refresh-сессия администратора.
type AdminSession struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AdminID      uuid.UUID `db:"admin_id" json:"admin_id"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AdminIdentity то, что известно о вошедшем администраторе из токена.
type AdminIdentity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
