package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/middleware"
)

// RegisterRoutes mounts the session endpoints on g. Login is rate limited
// to 10 attempts per IP per minute. RequireAuth is exported separately for
// the other plugins' route groups.
func RegisterRoutes(g *echo.Group, h *Handler, service AuthService) {
	g.POST("/auth/login", h.Login, middleware.RateLimit(10, time.Minute))
	g.POST("/auth/logout", h.Logout)
	g.GET("/auth/csrf", h.CSRF)
	g.GET("/auth/me", h.Me, RequireAuth(service))
}
