package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-auth/internal/api/dto"
	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/service"
	apperrors "github.com/spec-kit/practice-auth/pkg/util"
)

// AuthHandler exposes login, refresh, logout and identity endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	identityHeader string
}

// NewAuthHandler constructs handler. identityHeader names the request header
// carrying the email asserted by the upstream identity proxy.
func NewAuthHandler(authService *service.AuthService, identityHeader string) *AuthHandler {
	return &AuthHandler{authService: authService, identityHeader: identityHeader}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.authService.LoginWithCredentials(c.UserContext(), req.EmployeeID, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(result.User),
			"auth": dto.NewAuthResponse(result.Session),
		},
	})
}

// LoginExternal handles POST /auth/login/external.
func (h *AuthHandler) LoginExternal(c *fiber.Ctx) error {
	result, err := h.authService.LoginWithExternalIdentity(c.UserContext(), c.Get(h.identityHeader))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(result.User),
			"auth": dto.NewAuthResponse(result.Session),
		},
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sess, err := h.authService.RefreshUserToken(c.UserContext(), req.RefreshToken, req.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"auth": dto.NewAuthResponse(*sess)}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	employeeID := ""
	if principal, ok := auth.PrincipalFromContext(c); ok {
		employeeID = principal.EmployeeID
	}

	if !h.authService.Logout(c.UserContext(), employeeID) {
		return apperrors.NewInternalError(nil)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Me handles GET /auth/me. The session cache wins; a bearer token is the fallback.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(c.UserContext())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if user == nil {
		principal, ok := auth.PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("not logged in")
		}
		rec := principal.Claims.StaffRecord()
		user = &rec
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// AdminCheck handles GET /auth/admin. Without employee_id it answers for the
// caller. Asking about someone else requires the caller to be an admin.
func (h *AuthHandler) AdminCheck(c *fiber.Ctx) error {
	ctx := c.UserContext()
	caller := h.callerID(c)

	target := c.Query("employee_id")
	if target != "" && target != caller {
		if caller == "" {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !h.authService.IsUserAdmin(ctx, caller) {
			return apperrors.NewForbidden("admin role required to check other staff")
		}
	}
	if target == "" {
		target = caller
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"is_admin": h.authService.IsUserAdmin(ctx, target)},
	})
}

// callerID names the caller from the bearer principal, else the session user.
func (h *AuthHandler) callerID(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal.EmployeeID
	}
	user, err := h.authService.CurrentUser(c.UserContext())
	if err != nil || user == nil {
		return ""
	}
	return user.EmployeeID
}
