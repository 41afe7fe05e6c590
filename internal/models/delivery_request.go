package models

import (
	"time"

	"github.com/ignatzorin/delivery-backend/internal/domain/valueobject"
)

// DeliveryRequest заявка клиента на покупку и доставку.
type DeliveryRequest struct {
	ID          string                    `db:"id" json:"id"`
	ClientName  string                    `db:"client_name" json:"client_name"`
	ClientPhone string                    `db:"client_phone" json:"client_phone"`
	Description string                    `db:"description" json:"description"`
	Category    string                    `db:"category" json:"category"`
	Budget      float64                   `db:"budget" json:"budget"`
	Image       *string                   `db:"image" json:"image,omitempty"`
	Status      valueobject.RequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time                 `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time                 `db:"updated_at" json:"updated_at"`
}
