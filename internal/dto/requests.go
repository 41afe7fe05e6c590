package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexibleString принимает в JSON и строку, и число. Число сохраняется в исходной записи.
type FlexibleString string

// UnmarshalJSON реализует json.Unmarshaler.
func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("ожидалась строка или число: %w", err)
		}
		*f = FlexibleString(n.String())
	}
	return nil
}

// SubmitRequestPayload тело POST /api/requests в JSON. Image содержит data URL или пуст.
type SubmitRequestPayload struct {
	ClientName  string         `json:"client_name"`
	ClientPhone string         `json:"client_phone"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Budget      FlexibleString `json:"budget"`
	Image       string         `json:"image"`
}

// UpdateStatusRequest тело PUT /api/admin/requests/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// LoginRequest тело POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest тело POST /api/auth/refresh и /api/auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
