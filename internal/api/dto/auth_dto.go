package dto

import (
	"time"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

// SignupRequest payload for self-registration.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Nombre   string `json:"nombre" validate:"required"`
	Apellido string `json:"apellido"`
	Telefono string `json:"telefono"`
	Role     string `json:"role" validate:"required,role"`
	Area     string `json:"area,omitempty" validate:"required_if=Role externo,omitempty,area"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse describes the bearer token handed to clients.
type SessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
}

// NewSessionResponse maps a domain session. now drives expires_in.
func NewSessionResponse(session *domain.Session, now time.Time) *SessionResponse {
	if session == nil {
		return nil
	}
	expiresIn := int64(session.ExpiresAt.Sub(now).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	return &SessionResponse{
		AccessToken: session.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
		ExpiresAt:   session.ExpiresAt.Unix(),
	}
}

// ToDomain converts the wire session back.
func (s *SessionResponse) ToDomain() *domain.Session {
	if s == nil {
		return nil
	}
	return &domain.Session{AccessToken: s.AccessToken, ExpiresAt: time.Unix(s.ExpiresAt, 0).UTC()}
}

// AuthResponse is returned by login and session lookups. Both fields are
// null when there is no session.
type AuthResponse struct {
	Session *SessionResponse `json:"session"`
	User    *UserResponse    `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
