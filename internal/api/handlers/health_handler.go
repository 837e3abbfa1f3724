package handlers

import (
	"hs-compliance/internal/service"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	knowledge service.SnapshotProvider
}

func NewHealthHandler(knowledge service.SnapshotProvider) *HealthHandler {
	return &HealthHandler{knowledge: knowledge}
}

// Healthz godoc
// @Summary Liveness and readiness
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]any
// @Router /healthz [get]
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	status := snapshotStatus(h.knowledge)
	return c.JSON(fiber.Map{
		"status":   "ok",
		"ready":    status.Ready,
		"codes":    status.Codes,
		"passages": status.Passages,
	})
}
