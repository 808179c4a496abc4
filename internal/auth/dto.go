package auth

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest carries signup input.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest carries login input.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the caller-facing user shape.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned on successful register/login.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        UserSummary `json:"user"`
}
