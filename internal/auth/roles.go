package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hrportal/attendance-service/internal/domain"
)

// RequireRole ensures the principal holds one of the allowed roles. No
// roles means any authenticated caller.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}

// RequireManager admits roles that manage at least one other role.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !domain.CanManageOthers(principal.User.Role) {
			return fiber.NewError(http.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}
