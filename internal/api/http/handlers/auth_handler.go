package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/auth"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/service"
)

// AuthHandler exposes signup, login, session and logout.
type AuthHandler struct {
	auth  *service.AuthService
	clock domain.Clock
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, clock domain.Clock) *AuthHandler {
	return &AuthHandler{auth: authService, clock: clock}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		Telefono: req.Telefono,
		Role:     domain.UserRole(req.Role),
		Area:     domain.Area(req.Area),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, user, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		Session: dto.NewSessionResponse(session, h.clock.Now()),
		User:    dto.NewUserResponse(user),
	})
}

// Session handles GET /session. A missing or invalid token is not an error;
// the body simply carries null session and user.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.IsGuest() {
		return c.JSON(dto.AuthResponse{})
	}
	session := &domain.Session{
		AccessToken: principal.AccessToken,
		TokenID:     principal.TokenID,
		ExpiresAt:   principal.ExpiresAt,
	}
	return c.JSON(dto.AuthResponse{
		Session: dto.NewSessionResponse(session, h.clock.Now()),
		User:    dto.NewUserResponse(principal.User),
	})
}

// Logout handles POST /logout. It always succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	h.auth.Logout(c.UserContext(), principal)
	return c.JSON(dto.MessageResponse{Message: "Sesión cerrada"})
}
