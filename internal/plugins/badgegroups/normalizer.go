package badgegroups

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/converswp/trustbadges/internal/apperror"
	"github.com/converswp/trustbadges/internal/sanitize"
	"github.com/converswp/trustbadges/internal/validation"
)

// groupIDPattern is the accepted shape of a client-supplied group id.
var groupIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// identity holds the fields of a submitted group that are validated rather
// than defaulted.
type identity struct {
	ID             string `json:"id" validate:"omitempty,max=64,groupid"`
	Name           string `json:"name" validate:"required,max=255"`
	RequiredPlugin string `json:"requiredPlugin" validate:"omitempty,oneof=woocommerce edd"`
}

// Normalizer turns client-submitted group objects into BadgeGroups.
// It is safe for concurrent use.
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer creates a Normalizer with the group id rule registered.
func NewNormalizer() *Normalizer {
	v := validation.New()
	_ = v.RegisterValidation("groupid", func(fl validator.FieldLevel) bool {
		return groupIDPattern.MatchString(fl.Field().String())
	})
	return &Normalizer{validate: v}
}

// Normalize validates one raw group against the groups that already exist.
// A missing id is replaced with the next sequential numeric id.
func (n *Normalizer) Normalize(raw map[string]any, existing []BadgeGroup) (*BadgeGroup, error) {
	groups, err := n.NormalizeBatch([]map[string]any{raw}, existing)
	if err != nil {
		return nil, err
	}
	return &groups[0], nil
}

// NormalizeBatch validates every member of a batch. Ids generated for
// earlier members are taken into account for later ones, so a batch of new
// groups receives distinct ids. The first invalid member fails the batch.
func (n *Normalizer) NormalizeBatch(raws []map[string]any, existing []BadgeGroup) ([]BadgeGroup, error) {
	byID := make(map[string]BadgeGroup, len(existing))
	for _, g := range existing {
		byID[g.ID] = g
	}
	ids := newIDAllocator(existing)

	out := make([]BadgeGroup, 0, len(raws))
	for i, raw := range raws {
		g, err := n.normalizeOne(raw, byID, ids)
		if err != nil {
			if len(raws) > 1 {
				return nil, prefixValidation(err, fmt.Sprintf("group %d", i+1))
			}
			return nil, err
		}
		ids.observe(g.ID)
		out = append(out, *g)
	}
	return out, nil
}

// normalizeOne builds a single group. Existing groups keep their default
// flag and, when isActive is not submitted, their active state.
func (n *Normalizer) normalizeOne(raw map[string]any, byID map[string]BadgeGroup, ids *idAllocator) (*BadgeGroup, error) {
	if raw == nil {
		return nil, apperror.NewValidation("group must be an object")
	}
	raw = coerceJSONValues(raw)
	fields := map[string]string{}

	id, ok := idString(raw["id"])
	if !ok {
		fields["id"] = "must be a string or number"
	}
	name, ok := raw["name"].(string)
	if !ok && raw["name"] != nil {
		fields["name"] = "must be a string"
	}
	plugin, ok := pluginString(raw["requiredPlugin"])
	if !ok {
		fields["requiredPlugin"] = "must be one of woocommerce, edd or null"
	}

	settingsRaw, hasSettings := raw["settings"].(map[string]any)
	if !hasSettings {
		fields["settings"] = "is required and must be an object"
	}

	ident := identity{ID: id, Name: sanitize.Text(name), RequiredPlugin: plugin}
	if err := n.validate.Struct(ident); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, apperror.NewInternal(fmt.Errorf("validating group: %w", err))
		}
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = validation.Describe(fe)
			}
		}
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidationFields("invalid badge group", fields)
	}

	g := &BadgeGroup{
		ID:             ident.ID,
		Name:           ident.Name,
		RequiredPlugin: Plugin(ident.RequiredPlugin),
		IsActive:       true,
		Settings:       Normalize(coerceSettingsValues(settingsRaw)),
	}
	if g.ID == "" {
		g.ID = ids.next()
	}
	if prev, found := byID[g.ID]; found {
		g.IsDefault = prev.IsDefault
		g.IsActive = prev.IsActive
		g.CreatedAt = prev.CreatedAt
	}
	if v, present := raw["isActive"]; present && v != nil {
		if b, ok := coerceBool(v); ok {
			g.IsActive = b
		}
	}
	return g, nil
}

// prefixValidation qualifies validation messages with the batch position.
func prefixValidation(err error, prefix string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Type == "validation_error" {
		return apperror.NewValidationFields(prefix+": "+appErr.Message, appErr.Fields)
	}
	return err
}

// --- Raw value coercion ---

// coerceJSONValues decodes string values that look like JSON objects or
// arrays. Values that fail to parse are left as the raw string.
func coerceJSONValues(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = decodeJSONString(v)
	}
	return out
}

// coerceSettingsValues applies the same JSON decoding one level down.
func coerceSettingsValues(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	return coerceJSONValues(raw)
}

// decodeJSONString parses v when it is a string starting with { or [.
func decodeJSONString(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return v
	}
	return decoded
}

// idString accepts string ids and integral numeric ids ("3" or 3).
func idString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	case float64:
		if t != math.Trunc(t) || t < 0 {
			return "", false
		}
		return strconv.FormatInt(int64(t), 10), true
	case json.Number:
		if _, err := t.Int64(); err != nil {
			return "", false
		}
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	}
	return "", false
}

// pluginString accepts null, "", "none", or a plugin name in any case.
// The value is returned lowercased for validation.
func pluginString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if s == "none" {
			s = ""
		}
		return s, true
	}
	return "", false
}

// --- Sequential ids ---

// idAllocator hands out numeric-string ids for custom groups: one past the
// highest numeric id seen so far, starting at "1".
type idAllocator struct {
	max int64
}

// newIDAllocator seeds the allocator from the custom (non-default) groups.
func newIDAllocator(existing []BadgeGroup) *idAllocator {
	a := &idAllocator{}
	for _, g := range existing {
		if !g.IsDefault {
			a.observe(g.ID)
		}
	}
	return a
}

// observe raises the high-water mark if id is numeric.
func (a *idAllocator) observe(id string) {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > a.max {
		a.max = n
	}
}

// next returns the next free id and reserves it.
func (a *idAllocator) next() string {
	a.max++
	return strconv.FormatInt(a.max, 10)
}
