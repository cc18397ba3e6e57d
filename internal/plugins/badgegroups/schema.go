package badgegroups

import (
	"encoding/json"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// BadgeSettings is the canonical settings record of a badge group. Every
// field is populated once a value has passed through Normalize; partial
// records never reach storage or the renderer.
type BadgeSettings struct {
	ShowHeader          bool     `json:"showHeader"`
	HeaderText          string   `json:"headerText"`
	FontSize            string   `json:"fontSize"`
	Alignment           string   `json:"alignment"`
	BadgeAlignment      string   `json:"badgeAlignment"`
	Position            string   `json:"position"`
	TextColor           string   `json:"textColor"`
	BadgeStyle          string   `json:"badgeStyle"`
	BadgeSizeDesktop    string   `json:"badgeSizeDesktop"`
	BadgeSizeMobile     string   `json:"badgeSizeMobile"`
	BadgeColor          string   `json:"badgeColor"`
	CustomMargin        bool     `json:"customMargin"`
	MarginTop           string   `json:"marginTop"`
	MarginRight         string   `json:"marginRight"`
	MarginBottom        string   `json:"marginBottom"`
	MarginLeft          string   `json:"marginLeft"`
	Animation           string   `json:"animation"`
	ShowAfterAddToCart  bool     `json:"showAfterAddToCart"`
	ShowBeforeAddToCart bool     `json:"showBeforeAddToCart"`
	ShowOnCheckout      bool     `json:"showOnCheckout"`
	SelectedBadges      []string `json:"selectedBadges"`
}

// Enum values shared with the renderer.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"

	StyleOriginal = "original"
	StyleCard     = "card"
	StyleMono     = "mono"
	StyleMonoCard = "mono-card"

	SizeExtraSmall = "extra-small"
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"

	AnimationNone   = ""
	AnimationFade   = "fade"
	AnimationSlide  = "slide"
	AnimationScale  = "scale"
	AnimationBounce = "bounce"
)

// DefaultSelectedBadges is the badge list a group starts with.
var DefaultSelectedBadges = []string{
	"mastercard", "visa-1", "paypal-1", "apple-pay", "stripe", "american-express-1",
}

// Defaults returns the default settings record. The returned value owns its
// SelectedBadges slice.
func Defaults() BadgeSettings {
	return BadgeSettings{
		ShowHeader:       true,
		HeaderText:       "Secure Checkout With",
		FontSize:         "18",
		Alignment:        AlignCenter,
		BadgeAlignment:   AlignCenter,
		Position:         AlignCenter,
		TextColor:        "#000000",
		BadgeStyle:       StyleOriginal,
		BadgeSizeDesktop: SizeMedium,
		BadgeSizeMobile:  SizeSmall,
		BadgeColor:       "#0066FF",
		MarginTop:        "0",
		MarginRight:      "0",
		MarginBottom:     "0",
		MarginLeft:       "0",
		Animation:        AnimationFade,
		SelectedBadges:   append([]string(nil), DefaultSelectedBadges...),
	}
}

// FieldType classifies how a raw value is coerced into a schema field.
type FieldType string

const (
	TypeBool     FieldType = "bool"
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeInteger  FieldType = "integer"
	TypeEnum     FieldType = "enum"
	TypeColor    FieldType = "color"
	TypeBadgeIDs FieldType = "badgeIds"
)

// field is one schema entry. bind returns a pointer into the record being
// normalized: *bool, *string, or *[]string depending on Type.
type field struct {
	name    string
	typ     FieldType
	allowed []string
	min     float64
	max     float64
	bind    func(*BadgeSettings) any
}

var (
	alignments = []string{AlignLeft, AlignCenter, AlignRight}
	styles     = []string{StyleOriginal, StyleCard, StyleMono, StyleMonoCard}
	sizes      = []string{SizeExtraSmall, SizeSmall, SizeMedium, SizeLarge}
	animations = []string{AnimationNone, AnimationFade, AnimationSlide, AnimationScale, AnimationBounce}
)

// schema lists every BadgeSettings field. Normalize walks it in order; any
// raw key that is not listed here is dropped.
var schema = []field{
	{name: "showHeader", typ: TypeBool, bind: func(s *BadgeSettings) any { return &s.ShowHeader }},
	{name: "headerText", typ: TypeText, max: maxHeaderRunes, bind: func(s *BadgeSettings) any { return &s.HeaderText }},
	{name: "fontSize", typ: TypeNumber, min: 1, max: 200, bind: func(s *BadgeSettings) any { return &s.FontSize }},
	{name: "alignment", typ: TypeEnum, allowed: alignments, bind: func(s *BadgeSettings) any { return &s.Alignment }},
	{name: "badgeAlignment", typ: TypeEnum, allowed: alignments, bind: func(s *BadgeSettings) any { return &s.BadgeAlignment }},
	{name: "position", typ: TypeEnum, allowed: alignments, bind: func(s *BadgeSettings) any { return &s.Position }},
	{name: "textColor", typ: TypeColor, bind: func(s *BadgeSettings) any { return &s.TextColor }},
	{name: "badgeStyle", typ: TypeEnum, allowed: styles, bind: func(s *BadgeSettings) any { return &s.BadgeStyle }},
	{name: "badgeSizeDesktop", typ: TypeEnum, allowed: sizes, bind: func(s *BadgeSettings) any { return &s.BadgeSizeDesktop }},
	{name: "badgeSizeMobile", typ: TypeEnum, allowed: sizes, bind: func(s *BadgeSettings) any { return &s.BadgeSizeMobile }},
	{name: "badgeColor", typ: TypeColor, bind: func(s *BadgeSettings) any { return &s.BadgeColor }},
	{name: "customMargin", typ: TypeBool, bind: func(s *BadgeSettings) any { return &s.CustomMargin }},
	{name: "marginTop", typ: TypeInteger, min: -maxMargin, max: maxMargin, bind: func(s *BadgeSettings) any { return &s.MarginTop }},
	{name: "marginRight", typ: TypeInteger, min: -maxMargin, max: maxMargin, bind: func(s *BadgeSettings) any { return &s.MarginRight }},
	{name: "marginBottom", typ: TypeInteger, min: -maxMargin, max: maxMargin, bind: func(s *BadgeSettings) any { return &s.MarginBottom }},
	{name: "marginLeft", typ: TypeInteger, min: -maxMargin, max: maxMargin, bind: func(s *BadgeSettings) any { return &s.MarginLeft }},
	{name: "animation", typ: TypeEnum, allowed: animations, bind: func(s *BadgeSettings) any { return &s.Animation }},
	{name: "showAfterAddToCart", typ: TypeBool, bind: func(s *BadgeSettings) any { return &s.ShowAfterAddToCart }},
	{name: "showBeforeAddToCart", typ: TypeBool, bind: func(s *BadgeSettings) any { return &s.ShowBeforeAddToCart }},
	{name: "showOnCheckout", typ: TypeBool, bind: func(s *BadgeSettings) any { return &s.ShowOnCheckout }},
	{name: "selectedBadges", typ: TypeBadgeIDs, max: maxSelectedBadges, bind: func(s *BadgeSettings) any { return &s.SelectedBadges }},
}

const (
	maxHeaderRunes    = 200
	maxMargin         = 500
	maxSelectedBadges = 100
)

var (
	colorPattern   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	badgeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// IsColor reports whether s is a #rgb, #rgba, #rrggbb or #rrggbbaa color.
func IsColor(s string) bool {
	return colorPattern.MatchString(s)
}

// FieldSpec describes one settings field for clients building a form.
type FieldSpec struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Default any       `json:"default"`
	Allowed []string  `json:"allowed,omitempty"`
}

// Fields returns the schema in declaration order with each field's default.
func Fields() []FieldSpec {
	defaults := Defaults()
	specs := make([]FieldSpec, 0, len(schema))
	for _, f := range schema {
		var def any
		switch p := f.bind(&defaults).(type) {
		case *bool:
			def = *p
		case *string:
			def = *p
		case *[]string:
			def = append([]string(nil), (*p)...)
		}
		specs = append(specs, FieldSpec{Name: f.name, Type: f.typ, Default: def, Allowed: f.allowed})
	}
	return specs
}

// Normalize converts an arbitrary settings object into a canonical record.
// Missing keys take their default, unknown keys are dropped, and a value
// that cannot be coerced to its field's type (including an enum value
// outside the allowed set) silently falls back to that field's default.
// Normalize never fails and Normalize(Normalize(x).Map()) == Normalize(x).
func Normalize(raw map[string]any) BadgeSettings {
	out := Defaults()
	for _, f := range schema {
		v, ok := raw[f.name]
		if !ok || v == nil {
			continue
		}
		switch p := f.bind(&out).(type) {
		case *bool:
			if b, ok := coerceBool(v); ok {
				*p = b
			}
		case *string:
			if s, ok := f.coerceString(v); ok {
				*p = s
			}
		case *[]string:
			if ids, ok := coerceBadgeIDs(v, int(f.max)); ok {
				*p = ids
			}
		}
	}
	return out
}

// Map returns the record as a generic object keyed by schema field names.
func (s BadgeSettings) Map() map[string]any {
	m := make(map[string]any, len(schema))
	for _, f := range schema {
		switch p := f.bind(&s).(type) {
		case *bool:
			m[f.name] = *p
		case *string:
			m[f.name] = *p
		case *[]string:
			m[f.name] = append([]string(nil), (*p)...)
		}
	}
	return m
}

// Equal reports whether two records hold the same values.
func (s BadgeSettings) Equal(o BadgeSettings) bool {
	for _, f := range schema {
		switch p := f.bind(&s).(type) {
		case *bool:
			if *p != *f.bind(&o).(*bool) {
				return false
			}
		case *string:
			if *p != *f.bind(&o).(*string) {
				return false
			}
		case *[]string:
			if !slices.Equal(*p, *f.bind(&o).(*[]string)) {
				return false
			}
		}
	}
	return true
}

// --- Coercion ---

// coerceBool accepts native booleans, numbers, and the string spellings the
// admin form and legacy rows use ("1"/"0", "true"/"false", "on"/"off", "yes"/"no").
func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case int64:
		return t != 0, true
	case json.Number:
		f, err := t.Float64()
		return f != 0, err == nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "on", "yes":
			return true, true
		case "0", "false", "off", "no", "":
			return false, true
		}
	}
	return false, false
}

// coerceString converts v according to the field type. The second result is
// false when v must be replaced by the default.
func (f field) coerceString(v any) (string, bool) {
	switch f.typ {
	case TypeText:
		s, ok := scalarString(v)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > int(f.max) {
			s = string([]rune(s)[:int(f.max)])
			s = strings.TrimSpace(s)
		}
		return s, true

	case TypeEnum:
		s, ok := v.(string)
		if !ok {
			return "", false
		}
		s = strings.ToLower(strings.TrimSpace(s))
		for _, a := range f.allowed {
			if s == a {
				return s, true
			}
		}
		return "", false

	case TypeColor:
		s, ok := v.(string)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		if !colorPattern.MatchString(s) {
			return "", false
		}
		return s, true

	case TypeNumber, TypeInteger:
		n, ok := numericValue(v)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) || n < f.min || n > f.max {
			return "", false
		}
		if f.typ == TypeInteger {
			if n != math.Trunc(n) {
				return "", false
			}
			return strconv.FormatInt(int64(n), 10), true
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// scalarString renders strings and numbers as text.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// numericValue parses numbers and numeric strings ("18", " 12.5 ").
func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// coerceBadgeIDs accepts a list of ids, or a JSON-encoded list in a string.
// Blank or malformed entries are dropped; the order of the rest is kept.
// An explicitly empty list stays empty.
func coerceBadgeIDs(v any, limit int) ([]string, bool) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	case string:
		trimmed := strings.TrimSpace(t)
		if !strings.HasPrefix(trimmed, "[") {
			return nil, false
		}
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, false
		}
	default:
		return nil, false
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if !badgeIDPattern.MatchString(s) {
			continue
		}
		ids = append(ids, s)
		if len(ids) == limit {
			break
		}
	}
	return ids, true
}
