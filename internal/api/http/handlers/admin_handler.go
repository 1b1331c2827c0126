package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/observability"
	"github.com/spec-kit/practice-auth/internal/service"
)

// AdminHandler serves admin-only endpoints.
type AdminHandler struct {
	metrics *observability.Metrics
	audit   *service.AuditService
}

// NewAdminHandler returns a new handler instance.
func NewAdminHandler(metrics *observability.Metrics, audit *service.AuditService) *AdminHandler {
	return &AdminHandler{metrics: metrics, audit: audit}
}

// Ping handles GET /admin/ping.
func (h *AdminHandler) Ping(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	return c.JSON(fiber.Map{
		"data": fiber.Map{"status": "ok", "employee_id": principal.EmployeeID},
	})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// AuditHistory handles GET /admin/audit/:employee_id.
func (h *AdminHandler) AuditHistory(c *fiber.Ctx) error {
	entries, err := h.audit.History(c.UserContext(), c.Params("employee_id"), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}
