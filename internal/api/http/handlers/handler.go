package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/domain"
	apperrors "github.com/hrportal/attendance-service/pkg/util"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	return principal.User, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func data(c *fiber.Ctx, payload interface{}) error {
	return c.JSON(fiber.Map{"data": payload})
}
