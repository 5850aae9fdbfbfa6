package auth

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest carries the fields submitted when creating an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest carries the credentials submitted at login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the account shape returned to clients.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	AccessToken string      `json:"access_token"`
	User        UserSummary `json:"user"`
}
