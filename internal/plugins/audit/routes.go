package audit

import (
	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/plugins/auth"
)

// RegisterRoutes mounts the audit feed on g. The feed is restricted to site
// admins.
func RegisterRoutes(g *echo.Group, h *Handler, authSvc auth.AuthService) {
	g.GET("/audit", h.Recent, auth.RequireAuth(authSvc), auth.RequireSiteAdmin())
}
