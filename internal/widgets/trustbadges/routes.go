package trustbadges

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the JSON render endpoints on api and the HTML embed
// endpoint on the root router. All are public.
func RegisterRoutes(e *echo.Echo, api *echo.Group, h *Handler) {
	api.GET("/render/groups/:id", h.RenderGroup)
	api.GET("/render/:trigger", h.RenderTrigger)

	e.GET("/embed/:trigger", h.Embed)
}
