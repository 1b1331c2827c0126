package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/practice-auth/pkg/util"
)

// AdminChecker resolves whether an employee holds administrator rights.
type AdminChecker interface {
	IsUserAdmin(ctx context.Context, employeeID string) bool
}

// RequireAdmin admits only callers the checker confirms as administrators.
// The token's own isAdmin claim is not trusted for this decision.
func RequireAdmin(checker AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !checker.IsUserAdmin(c.UserContext(), principal.EmployeeID) {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
