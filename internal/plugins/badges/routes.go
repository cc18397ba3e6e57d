package badges

import (
	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/plugins/auth"
)

// RegisterRoutes mounts the badge routes on g. Reads are public and pass
// through publicLimit; writes need an admin session.
func RegisterRoutes(g *echo.Group, h *Handler, authSvc auth.AuthService, publicLimit echo.MiddlewareFunc) {
	g.GET("/badges", h.List, publicLimit)
	g.GET("/badges/catalog", h.Catalog, publicLimit)

	admin := []echo.MiddlewareFunc{auth.RequireAuth(authSvc), auth.RequireSiteAdmin()}
	g.POST("/badges", h.Create, admin...)
	g.PUT("/badges/:id", h.Update, admin...)
	g.DELETE("/badges/:id", h.Delete, admin...)
}
