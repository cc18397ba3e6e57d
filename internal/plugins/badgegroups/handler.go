package badgegroups

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/apperror"
	"github.com/converswp/trustbadges/internal/plugins/audit"
	"github.com/converswp/trustbadges/internal/plugins/auth"
)

// Handler serves the badge group admin API. Request bodies are decoded into
// generic JSON and handed to the service, which owns normalization.
type Handler struct {
	service  BadgeGroupService
	auditSvc audit.AuditService
}

// NewHandler creates a new badge group handler. auditSvc may be nil.
func NewHandler(service BadgeGroupService, auditSvc audit.AuditService) *Handler {
	return &Handler{service: service, auditSvc: auditSvc}
}

// List returns every group (GET /settings).
func (h *Handler) List(c echo.Context) error {
	groups, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

// SaveBatch saves a whole settings panel atomically (POST /settings). The
// body is an array of groups, or an object holding one under "groups" or
// "settings". Responds with the full list after the save.
func (h *Handler) SaveBatch(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return err
	}

	raws, err := batchMembers(body)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	groups, err := h.service.SubmitBatch(ctx, raws)
	if err != nil {
		return err
	}

	h.record(ctx, c, ActionBatchSaved, "*", map[string]any{"count": len(raws)})
	return c.JSON(http.StatusOK, groups)
}

// Upsert creates or updates one group (POST /settings/group). The body is
// the group object, optionally wrapped as {"group": {...}}.
func (h *Handler) Upsert(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return err
	}

	raw, ok := body.(map[string]any)
	if !ok {
		return apperror.NewValidation("request body must be a group object")
	}
	if inner, wrapped := raw["group"].(map[string]any); wrapped {
		if _, hasSettings := raw["settings"]; !hasSettings {
			raw = inner
		}
	}

	ctx := c.Request().Context()
	group, err := h.service.Submit(ctx, raw)
	if err != nil {
		return err
	}

	h.record(ctx, c, ActionGroupSaved, group.ID, map[string]any{"name": group.Name})
	return c.JSON(http.StatusOK, group)
}

// Get returns one group (GET /settings/group/:id).
func (h *Handler) Get(c echo.Context) error {
	group, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}

// Delete removes a custom group (DELETE /settings/group/:id). Default
// groups are refused with 403.
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	if err := h.service.Delete(ctx, id); err != nil {
		return err
	}

	h.record(ctx, c, ActionGroupDeleted, id, nil)
	return c.JSON(http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// Schema describes the settings fields with their defaults
// (GET /settings/schema).
func (h *Handler) Schema(c echo.Context) error {
	return c.JSON(http.StatusOK, Fields())
}

// record writes an audit entry for a successful change. Failures are
// already logged by the audit service and do not affect the response.
func (h *Handler) record(ctx context.Context, c echo.Context, action, targetID string, details map[string]any) {
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
		TargetType: audit.TargetBadgeGroup,
		TargetID:   targetID,
		Details:    details,
	})
}

// --- Body Decoding ---

// decodeBody reads the request body as generic JSON.
func decodeBody(c echo.Context) (any, error) {
	var body any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return nil, apperror.NewBadRequest("request body must be valid JSON")
	}
	return body, nil
}

// batchMembers extracts the group objects from a batch body.
func batchMembers(body any) ([]map[string]any, error) {
	if obj, ok := body.(map[string]any); ok {
		switch {
		case obj["groups"] != nil:
			body = decodeJSONString(obj["groups"])
		case obj["settings"] != nil:
			body = decodeJSONString(obj["settings"])
		default:
			return nil, apperror.NewValidation("request body must contain a list of groups")
		}
	}

	items, ok := body.([]any)
	if !ok {
		return nil, apperror.NewValidation("groups must be a list")
	}

	raws := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, apperror.NewValidation("every group must be an object")
		}
		raws = append(raws, obj)
	}
	return raws, nil
}
