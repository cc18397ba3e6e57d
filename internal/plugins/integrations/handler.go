package integrations

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the capability probe.
type Handler struct {
	service CapabilityService
}

// NewHandler creates a capability handler.
func NewHandler(service CapabilityService) *Handler {
	return &Handler{service: service}
}

// Installed returns the installed plugin flags (GET /installed-plugins).
func (h *Handler) Installed(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Installed())
}
