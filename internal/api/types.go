package api

import (
	"time"

	"github.com/khairulh/notulen/domain/entities"
)

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// LoginResponse represents the response payload for user login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// SessionListResponse wraps the sessions owned by the caller
type SessionListResponse struct {
	Sessions []entities.Session `json:"sessions"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
