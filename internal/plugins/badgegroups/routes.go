package badgegroups

import (
	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/plugins/auth"
)

// RegisterRoutes mounts the badge group admin API on g. Every route needs an
// admin session; the CSRF middleware installed globally covers the
// mutating ones.
func RegisterRoutes(g *echo.Group, h *Handler, authSvc auth.AuthService) {
	sg := g.Group("/settings", auth.RequireAuth(authSvc), auth.RequireSiteAdmin())

	sg.GET("", h.List)
	sg.POST("", h.SaveBatch)
	sg.GET("/schema", h.Schema)
	sg.POST("/group", h.Upsert)
	sg.GET("/group/:id", h.Get)
	sg.DELETE("/group/:id", h.Delete)
}
