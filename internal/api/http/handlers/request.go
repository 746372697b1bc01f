package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reclamos-service/internal/auth"
	"github.com/spec-kit/reclamos-service/internal/domain"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
	"github.com/spec-kit/reclamos-service/pkg/util/validate"
)

// parseBody decodes the JSON body into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return check(dst)
}

func check(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid payload", verrs.Details())
	}
	return apperrors.NewInternalError(err)
}

// actor returns the caller, falling back to the guest identity.
func actor(c *fiber.Ctx) *domain.User {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal == nil || principal.User == nil {
		return domain.NewGuest()
	}
	return principal.User
}
