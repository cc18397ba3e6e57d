package trustbadges

import (
	"context"
	"log/slog"

	"github.com/converswp/trustbadges/internal/apperror"
	"github.com/converswp/trustbadges/internal/plugins/badgegroups"
)

// State is the terminal state of a render call.
type State string

const (
	StateRendered State = "rendered"
	StateSkipped  State = "skipped"
)

// Reasons a render call was skipped.
const (
	ReasonGroupNotFound      = "group_not_found"
	ReasonInactive           = "inactive"
	ReasonPluginMissing      = "required_plugin_missing"
	ReasonTriggerUnavailable = "trigger_unavailable"
	ReasonTriggerDisabled    = "trigger_disabled"
)

// Outcome is the result of resolving and rendering one trigger or group.
type Outcome struct {
	State   State  `json:"state"`
	GroupID string `json:"groupId"`
	HTML    string `json:"html,omitempty"`
	CSS     string `json:"css,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Trigger describes what renders at a host trigger point.
type Trigger struct {
	GroupID string

	// Plugin is the host plugin that provides the trigger; empty when the
	// trigger always exists.
	Plugin badgegroups.Plugin

	// Enabled reports whether the group's settings turn this trigger on.
	// Nil means no flag applies.
	Enabled func(badgegroups.BadgeSettings) bool

	Placement Placement
}

func afterAddToCart(s badgegroups.BadgeSettings) bool  { return s.ShowAfterAddToCart }
func beforeAddToCart(s badgegroups.BadgeSettings) bool { return s.ShowBeforeAddToCart }
func onCheckout(s badgegroups.BadgeSettings) bool      { return s.ShowOnCheckout }

var (
	wooAfterCart  = Trigger{GroupID: badgegroups.GroupProductPage, Plugin: badgegroups.PluginWooCommerce, Enabled: afterAddToCart}
	wooBeforeCart = Trigger{GroupID: badgegroups.GroupProductPage, Plugin: badgegroups.PluginWooCommerce, Enabled: beforeAddToCart}
	eddPurchase   = Trigger{GroupID: badgegroups.GroupProductPage, Plugin: badgegroups.PluginEDD, Enabled: afterAddToCart}
	wooCheckout   = Trigger{GroupID: badgegroups.GroupCheckout, Plugin: badgegroups.PluginWooCommerce, Enabled: onCheckout}
	eddCheckout   = Trigger{GroupID: badgegroups.GroupCheckout, Plugin: badgegroups.PluginEDD, Enabled: onCheckout}
	footer        = Trigger{GroupID: badgegroups.GroupFooter, Placement: PlacementFooter}
)

// triggers maps both the short trigger names and the host hook names.
var triggers = map[string]Trigger{
	"showAfterAddToCart":                 wooAfterCart,
	"woocommerce_after_add_to_cart_form": wooAfterCart,

	"showBeforeAddToCart":                 wooBeforeCart,
	"woocommerce_before_add_to_cart_form": wooBeforeCart,

	"eddPurchaseLinkEnd":    eddPurchase,
	"edd_purchase_link_end": eddPurchase,

	"checkoutBeforeOrderReview":          wooCheckout,
	"woocommerce_pay_order_after_submit": wooCheckout,
	"woocommerce_after_cart_totals":      wooCheckout,

	"eddCheckoutBeforePurchaseForm":     eddCheckout,
	"edd_checkout_before_purchase_form": eddCheckout,

	"wp_footer": footer,
	"footer":    footer,
}

// ResolveTrigger returns the trigger definition for a name. Unknown names
// resolve to the footer.
func ResolveTrigger(name string) Trigger {
	if t, ok := triggers[name]; ok {
		return t
	}
	return footer
}

// GroupSource loads groups, normally the cached badge group service.
type GroupSource interface {
	Get(ctx context.Context, id string) (*badgegroups.BadgeGroup, error)
}

// Capabilities reports installed host plugins.
type Capabilities interface {
	Has(plugin string) bool
}

// Resolver runs a render call: resolve the group, load it, check that it
// may render, then render or skip.
type Resolver struct {
	groups   GroupSource
	caps     Capabilities
	renderer *Renderer
}

// NewResolver creates a resolver.
func NewResolver(groups GroupSource, caps Capabilities, renderer *Renderer) *Resolver {
	return &Resolver{groups: groups, caps: caps, renderer: renderer}
}

// RenderTrigger renders whatever group belongs at the named trigger.
// Skipping is not an error; only a store failure is.
func (r *Resolver) RenderTrigger(ctx context.Context, name string) (Outcome, error) {
	t := ResolveTrigger(name)
	if !r.caps.Has(string(t.Plugin)) {
		return skipped(t.GroupID, ReasonTriggerUnavailable), nil
	}

	g, out, err := r.load(ctx, t.GroupID)
	if g == nil {
		return out, err
	}
	if !g.IsActive {
		return skipped(g.ID, ReasonInactive), nil
	}
	if !r.caps.Has(string(g.RequiredPlugin)) {
		return skipped(g.ID, ReasonPluginMissing), nil
	}
	if t.Enabled != nil && !t.Enabled(g.Settings) {
		return skipped(g.ID, ReasonTriggerDisabled), nil
	}
	return r.rendered(g, t.Placement), nil
}

// RenderGroup renders a group by id, as an embedded shortcode would. Only
// the active flag is checked.
func (r *Resolver) RenderGroup(ctx context.Context, id string) (Outcome, error) {
	g, out, err := r.load(ctx, id)
	if g == nil {
		return out, err
	}
	if !g.IsActive {
		return skipped(g.ID, ReasonInactive), nil
	}
	return r.rendered(g, PlacementInline), nil
}

// load fetches a group. A nil group comes with either a skipped outcome or
// an error.
func (r *Resolver) load(ctx context.Context, id string) (*badgegroups.BadgeGroup, Outcome, error) {
	g, err := r.groups.Get(ctx, id)
	if apperror.IsType(err, "not_found") {
		return nil, skipped(id, ReasonGroupNotFound), nil
	}
	if err != nil {
		slog.Error("loading badge group for render failed", slog.String("group_id", id), slog.Any("error", err))
		return nil, Outcome{}, err
	}
	return g, Outcome{}, nil
}

func (r *Resolver) rendered(g *badgegroups.BadgeGroup, placement Placement) Outcome {
	f := r.renderer.Render(g.ID, g.Settings, placement)
	return Outcome{State: StateRendered, GroupID: g.ID, HTML: f.HTML, CSS: f.CSS}
}

func skipped(groupID, reason string) Outcome {
	slog.Debug("badge render skipped", slog.String("group_id", groupID), slog.String("reason", reason))
	return Outcome{State: StateSkipped, GroupID: groupID, Reason: reason}
}
