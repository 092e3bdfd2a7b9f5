package domain

import (
	"time"

	"github.com/google/uuid"
)

type Admin struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AdminDraft struct {
	Email        string
	PasswordHash string
}

type Session struct {
	Token     string    `json:"token"`
	AdminID   uuid.UUID `json:"adminId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active reports whether the session is still valid at now.
func (s Session) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type LoginResponse struct {
	SessionID string       `json:"sessionId"`
	Admin     AdminSummary `json:"admin"`
}
