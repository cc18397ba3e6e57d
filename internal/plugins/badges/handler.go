package badges

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/apperror"
	"github.com/converswp/trustbadges/internal/plugins/audit"
	"github.com/converswp/trustbadges/internal/plugins/auth"
	"github.com/converswp/trustbadges/internal/validation"
)

// Handler serves the badge endpoints.
type Handler struct {
	service  BadgeService
	catalog  *Catalog
	auditSvc audit.AuditService
}

// NewHandler creates a badge handler. auditSvc may be nil.
func NewHandler(service BadgeService, catalog *Catalog, auditSvc audit.AuditService) *Handler {
	return &Handler{service: service, catalog: catalog, auditSvc: auditSvc}
}

// List returns stored badges (GET /badges). ?active=1 limits the result to
// active badges.
func (h *Handler) List(c echo.Context) error {
	activeOnly := false
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperror.NewBadRequest("active must be a boolean")
		}
		activeOnly = b
	}

	badges, err := h.service.List(c.Request().Context(), activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, badges)
}

// Catalog returns the known badge images (GET /badges/catalog).
func (h *Handler) Catalog(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.All())
}

// Create stores a new badge (POST /badges).
func (h *Handler) Create(c echo.Context) error {
	input, err := bindInput(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	badge, err := h.service.Create(ctx, input)
	if err != nil {
		return err
	}

	h.record(ctx, c, ActionBadgeCreated, badge.ID, map[string]any{"name": badge.Name})
	return c.JSON(http.StatusCreated, badge)
}

// Update rewrites a badge (PUT /badges/:id).
func (h *Handler) Update(c echo.Context) error {
	id, err := badgeID(c)
	if err != nil {
		return err
	}
	input, err := bindInput(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	badge, err := h.service.Update(ctx, id, input)
	if err != nil {
		return err
	}

	h.record(ctx, c, ActionBadgeUpdated, id, map[string]any{"name": badge.Name})
	return c.JSON(http.StatusOK, badge)
}

// Delete removes a badge (DELETE /badges/:id).
func (h *Handler) Delete(c echo.Context) error {
	id, err := badgeID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.service.Delete(ctx, id); err != nil {
		return err
	}

	h.record(ctx, c, ActionBadgeDeleted, id, nil)
	return c.JSON(http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func bindInput(c echo.Context) (BadgeInput, error) {
	var req BadgeRequest
	if err := c.Bind(&req); err != nil {
		return BadgeInput{}, apperror.NewBadRequest("request body must be valid JSON")
	}
	if err := validation.Struct(req); err != nil {
		return BadgeInput{}, err
	}
	return BadgeInput{Name: req.Name, Settings: req.Settings, IsActive: req.IsActive}, nil
}

func badgeID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("badge id must be a positive integer")
	}
	return id, nil
}

func (h *Handler) record(ctx context.Context, c echo.Context, action string, id int64, details map[string]any) {
	if h.auditSvc == nil {
		return
	}
	userID := auth.GetUserID(c)
	if userID == "" {
		slog.Warn("skipping audit entry without user", slog.String("action", action))
		return
	}
	_ = h.auditSvc.Log(ctx, &audit.Entry{
		UserID:     userID,
		Action:     action,
		TargetType: audit.TargetBadge,
		TargetID:   strconv.FormatInt(id, 10),
		Details:    details,
	})
}
