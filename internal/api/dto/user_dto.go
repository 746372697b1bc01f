package dto

import (
	"time"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

// UserResponse is the public profile of an account. The password hash never
// leaves the server.
type UserResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Nombre           string     `json:"nombre"`
	Apellido         string     `json:"apellido"`
	Telefono         string     `json:"telefono"`
	Role             string     `json:"role"`
	Area             string     `json:"area,omitempty"`
	AccountStatus    string     `json:"accountStatus"`
	EmailConfirmedAt *time.Time `json:"emailConfirmedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Nombre:           user.Nombre,
		Apellido:         user.Apellido,
		Telefono:         user.Telefono,
		Role:             string(user.Role),
		Area:             string(user.Area),
		AccountStatus:    string(user.AccountStatus),
		EmailConfirmedAt: user.EmailConfirmedAt,
		CreatedAt:        user.CreatedAt,
	}
}

// NewUserList maps a slice of users, never returning nil.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *NewUserResponse(&users[i]))
	}
	return out
}

// ToDomain converts the wire profile back.
func (u *UserResponse) ToDomain() *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:               u.ID,
		Email:            u.Email,
		Nombre:           u.Nombre,
		Apellido:         u.Apellido,
		Telefono:         u.Telefono,
		Role:             domain.UserRole(u.Role),
		Area:             domain.Area(u.Area),
		AccountStatus:    domain.AccountStatus(u.AccountStatus),
		EmailConfirmedAt: u.EmailConfirmedAt,
		CreatedAt:        u.CreatedAt,
	}
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	User *UserResponse `json:"user"`
}

// UserListEnvelope wraps the user list.
type UserListEnvelope struct {
	Users []UserResponse `json:"users"`
}

// UpdateUserRequest changes the approval state of an account.
type UpdateUserRequest struct {
	AccountStatus string `json:"accountStatus" validate:"required,account_status"`
}
