package badgegroups

import (
	"slices"
	"testing"
)

func TestNormalize_EmptyYieldsDefaults(t *testing.T) {
	for _, raw := range []map[string]any{nil, {}} {
		got := Normalize(raw)
		if !got.Equal(Defaults()) {
			t.Errorf("Normalize(%v) = %+v, want defaults", raw, got)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []map[string]any{
		{},
		{"badgeStyle": "mono-card", "badgeColor": "#abc", "customMargin": "1", "marginTop": "12"},
		{"fontSize": 22.5, "animation": "", "selectedBadges": `["visa-1","stripe"]`},
		{"alignment": "RIGHT", "headerText": "  Pay safely  ", "showOnCheckout": "on"},
		{"badgeSizeDesktop": "huge", "marginLeft": "-3.5", "textColor": "red", "unknown": 1},
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once.Map())
		if !once.Equal(twice) {
			t.Errorf("not idempotent for %v:\n once  %+v\n twice %+v", raw, once, twice)
		}
	}
}

func TestNormalize_InvalidValuesFallBack(t *testing.T) {
	got := Normalize(map[string]any{
		"alignment":        "middle",
		"badgeStyle":       42,
		"badgeSizeMobile":  "unknown-value",
		"animation":        "spin",
		"textColor":        "javascript:alert(1)",
		"fontSize":         "huge",
		"marginTop":        "1.5",
		"marginRight":      "9999",
		"showHeader":       "maybe",
		"selectedBadges":   "visa-1",
		"badgeSizeDesktop": SizeLarge,
	})
	def := Defaults()

	if got.Alignment != def.Alignment || got.BadgeStyle != def.BadgeStyle || got.Animation != def.Animation {
		t.Errorf("enum fallback failed: %+v", got)
	}
	if got.BadgeSizeMobile != def.BadgeSizeMobile {
		t.Errorf("expected mobile size %q, got %q", def.BadgeSizeMobile, got.BadgeSizeMobile)
	}
	if got.BadgeSizeDesktop != SizeLarge {
		t.Errorf("expected desktop size large, got %q", got.BadgeSizeDesktop)
	}
	if got.TextColor != def.TextColor || got.FontSize != def.FontSize {
		t.Errorf("string fallback failed: color %q font %q", got.TextColor, got.FontSize)
	}
	if got.MarginTop != "0" || got.MarginRight != "0" {
		t.Errorf("margin fallback failed: %q %q", got.MarginTop, got.MarginRight)
	}
	if got.ShowHeader != def.ShowHeader {
		t.Error("expected showHeader default")
	}
	if !slices.Equal(got.SelectedBadges, def.SelectedBadges) {
		t.Errorf("expected default badges, got %v", got.SelectedBadges)
	}
}

func TestNormalize_Coercion(t *testing.T) {
	got := Normalize(map[string]any{
		"showHeader":         "0",
		"customMargin":       "1",
		"showAfterAddToCart": float64(1),
		"fontSize":           " 24 ",
		"marginBottom":       float64(-8),
		"alignment":          " Left ",
		"animation":          "",
		"headerText":         "<b>Secure</b> checkout",
		"selectedBadges":     []any{"visa-1", " stripe ", "", 7, "bad id!", "paypal-1"},
	})

	if got.ShowHeader || !got.CustomMargin || !got.ShowAfterAddToCart {
		t.Errorf("bool coercion failed: %+v", got)
	}
	if got.FontSize != "24" || got.MarginBottom != "-8" {
		t.Errorf("numeric coercion failed: font %q margin %q", got.FontSize, got.MarginBottom)
	}
	if got.Alignment != AlignLeft {
		t.Errorf("expected left, got %q", got.Alignment)
	}
	if got.Animation != AnimationNone {
		t.Errorf("expected empty animation to be kept, got %q", got.Animation)
	}
	if got.HeaderText != "<b>Secure</b> checkout" {
		t.Errorf("header text should be stored verbatim, got %q", got.HeaderText)
	}
	want := []string{"visa-1", "stripe", "paypal-1"}
	if !slices.Equal(got.SelectedBadges, want) {
		t.Errorf("selectedBadges = %v, want %v", got.SelectedBadges, want)
	}
}

func TestNormalize_EmptyBadgeListStaysEmpty(t *testing.T) {
	got := Normalize(map[string]any{"selectedBadges": []any{}})
	if len(got.SelectedBadges) != 0 {
		t.Errorf("expected no badges, got %v", got.SelectedBadges)
	}
}

func TestNormalize_HeaderTextTruncated(t *testing.T) {
	long := make([]rune, maxHeaderRunes+50)
	for i := range long {
		long[i] = 'é'
	}
	got := Normalize(map[string]any{"headerText": string(long)})
	if n := len([]rune(got.HeaderText)); n != maxHeaderRunes {
		t.Errorf("expected %d runes, got %d", maxHeaderRunes, n)
	}
}

func TestDefaults_OwnsSlice(t *testing.T) {
	a := Defaults()
	a.SelectedBadges[0] = "changed"
	if Defaults().SelectedBadges[0] == "changed" {
		t.Error("Defaults shares its badge slice")
	}
}

func TestFields_CoversEveryField(t *testing.T) {
	fields := Fields()
	if len(fields) != len(Defaults().Map()) {
		t.Fatalf("expected %d fields, got %d", len(Defaults().Map()), len(fields))
	}
	for _, f := range fields {
		if f.Type == TypeEnum && len(f.Allowed) == 0 {
			t.Errorf("enum field %s has no allowed values", f.Name)
		}
		if f.Name == "fontSize" && f.Default != "18" {
			t.Errorf("fontSize default = %v", f.Default)
		}
	}
}
