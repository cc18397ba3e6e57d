package integrations

import (
	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/plugins/auth"
)

// RegisterRoutes mounts the capability probe. Admin only.
func RegisterRoutes(g *echo.Group, h *Handler, authSvc auth.AuthService) {
	g.GET("/installed-plugins", h.Installed, auth.RequireAuth(authSvc), auth.RequireSiteAdmin())
}
