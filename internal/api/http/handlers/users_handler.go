package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/service"
)

// UsersHandler exposes moderator account administration.
type UsersHandler struct {
	users *service.UserService
	stats *service.StatsService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, statsService *service.StatsService) *UsersHandler {
	return &UsersHandler{users: userService, stats: statsService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.UserListEnvelope{Users: dto.NewUserList(users)})
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.SetAccountStatus(c.UserContext(), actor(c), c.Params("id"), domain.AccountStatus(req.AccountStatus))
	if err != nil {
		return err
	}
	return c.JSON(dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

// Stats handles GET /users/:id/stats.
func (h *UsersHandler) Stats(c *fiber.Ctx) error {
	id := c.Params("id")
	result, err := h.stats.ForUser(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserStatsEnvelope{UserID: id, Stats: result})
}
