package trustbadges

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/middleware"
)

// Handler serves storefront render requests.
type Handler struct {
	resolver *Resolver
}

// NewHandler creates a render handler.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// RenderTrigger returns the outcome for a trigger as JSON
// (GET /render/:trigger).
func (h *Handler) RenderTrigger(c echo.Context) error {
	out, err := h.resolver.RenderTrigger(c.Request().Context(), c.Param("trigger"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// RenderGroup returns the outcome for one group as JSON
// (GET /render/groups/:id).
func (h *Handler) RenderGroup(c echo.Context) error {
	out, err := h.resolver.RenderGroup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Embed writes the fragment for a trigger as HTML for direct injection
// (GET /embed/:trigger). A skipped render yields an HTML comment.
func (h *Handler) Embed(c echo.Context) error {
	out, err := h.resolver.RenderTrigger(c.Request().Context(), c.Param("trigger"))
	if err != nil {
		return err
	}
	if out.State == StateSkipped {
		return middleware.Render(c, http.StatusOK, SkippedComment(out.GroupID, out.Reason))
	}
	return middleware.Render(c, http.StatusOK, Component(Fragment{HTML: out.HTML, CSS: out.CSS}))
}
