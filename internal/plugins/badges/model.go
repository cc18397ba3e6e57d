// Package badges manages the badge catalog: the embedded list of known badge
// images that group settings refer to by id, and the stored badge entities
// admins can create, edit and retire. The active badge list backs public
// storefront pages and is served from a Redis cache.
package badges

import "time"

// Badge is an individually catalogued badge entity.
type Badge struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Settings  map[string]any `json:"settings"`
	IsActive  bool           `json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// BadgeRequest is the JSON body of POST /badges and PUT /badges/:id.
type BadgeRequest struct {
	Name     string         `json:"name" validate:"required,max=255"`
	Settings map[string]any `json:"settings"`
	IsActive *bool          `json:"isActive"`
}

// BadgeInput is the validated input passed from handler to service.
type BadgeInput struct {
	Name     string
	Settings map[string]any
	IsActive *bool
}

// --- Audit actions ---

const (
	ActionBadgeCreated = "badge.created"
	ActionBadgeUpdated = "badge.updated"
	ActionBadgeDeleted = "badge.deleted"
)
