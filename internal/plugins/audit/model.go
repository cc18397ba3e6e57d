// Package audit records administrative changes to badge groups and the badge
// catalog. Every successful mutation through the admin API is captured as an
// Entry and persisted to the audit_log table, so site owners can see who
// changed which storefront badges and when.
//
// Auditing only observes. A failed audit write never blocks the change it
// describes.
package audit

import "time"

// Target types identify the kind of record an entry refers to.
const (
	TargetBadgeGroup = "badge_group"
	TargetBadge      = "badge"
)

// Entry is a single recorded action in the audit log.
type Entry struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Action     string         `json:"action"`
	TargetType string         `json:"targetType"`
	TargetID   string         `json:"targetId"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
