// Package badgegroups stores named badge groups: independently configurable
// sets of trust-badge display settings tied to storefront positions. It owns
// the settings schema, the normalization of client submissions, the
// transactional MariaDB store with its Redis read cache, and the admin API.
//
// Three default groups (product-page, checkout, footer) are seeded at
// startup. They can be edited and deactivated but never deleted.
package badgegroups

import (
	"encoding/json"
	"time"
)

// Plugin names a host commerce capability a group can depend on.
type Plugin string

const (
	// PluginNone means the group renders regardless of installed plugins.
	PluginNone Plugin = ""

	// PluginWooCommerce gates a group on WooCommerce being present.
	PluginWooCommerce Plugin = "woocommerce"

	// PluginEDD gates a group on Easy Digital Downloads being present.
	PluginEDD Plugin = "edd"
)

// KnownPlugins lists every capability a group may require.
var KnownPlugins = []Plugin{PluginWooCommerce, PluginEDD}

// Valid reports whether p is none or a known plugin.
func (p Plugin) Valid() bool {
	if p == PluginNone {
		return true
	}
	for _, k := range KnownPlugins {
		if p == k {
			return true
		}
	}
	return false
}

// MarshalJSON encodes PluginNone as null.
func (p Plugin) MarshalJSON() ([]byte, error) {
	if p == PluginNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// Seeded default group ids.
const (
	GroupProductPage = "product-page"
	GroupCheckout    = "checkout"
	GroupFooter      = "footer"
)

// BadgeGroup is a named set of badge display settings.
type BadgeGroup struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	IsDefault      bool          `json:"isDefault"`
	IsActive       bool          `json:"isActive"`
	RequiredPlugin Plugin        `json:"requiredPlugin"`
	Settings       BadgeSettings `json:"settings"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// --- Audit actions ---

const (
	ActionGroupSaved   = "badge_group.saved"
	ActionGroupDeleted = "badge_group.deleted"
	ActionBatchSaved   = "badge_group.batch_saved"
)
