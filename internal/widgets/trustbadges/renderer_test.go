package trustbadges

import (
	"strings"
	"testing"

	"github.com/converswp/trustbadges/internal/plugins/badgegroups"
)

type fakeImages map[string]string

func (f fakeImages) Lookup(id string) (string, bool) {
	file, ok := f[id]
	return file, ok
}

var testImages = fakeImages{
	"visa-1":     "visa_1_color.svg",
	"stripe":     "stripe_color.svg",
	"mastercard": "mastercard_color.svg",
}

func newTestRenderer() *Renderer {
	return NewRenderer(testImages, "/static/badges")
}

func settingsWith(mutate func(*badgegroups.BadgeSettings)) badgegroups.BadgeSettings {
	s := badgegroups.Defaults()
	mutate(&s)
	return s
}

func TestRender_SizeTable(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.BadgeSizeDesktop = badgegroups.SizeLarge
		s.BadgeSizeMobile = "unknown-value"
		s.SelectedBadges = []string{"visa-1"}
	})

	f := newTestRenderer().Render("promo", s, PlacementInline)

	desktop := f.CSS[strings.Index(f.CSS, "@media screen and (min-width: 768px)"):]
	if !strings.Contains(desktop, "width: 80px !important;") {
		t.Errorf("expected 80px desktop width, got:\n%s", desktop)
	}
	mobile := f.CSS[:strings.Index(f.CSS, "@media")]
	if !strings.Contains(mobile, "width: 48px !important;") {
		t.Errorf("expected 48px mobile fallback, got:\n%s", mobile)
	}
	if !strings.Contains(f.HTML, "width: 48px;height: auto;max-height: 48px;") {
		t.Errorf("expected 48px inline image size, got %s", f.HTML)
	}
}

func TestRender_UnknownBadgeIDsAreSkipped(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.SelectedBadges = []string{"nonexistent-id"}
	})

	f := newTestRenderer().Render("promo", s, PlacementInline)

	if !strings.HasPrefix(f.HTML, `<div id="convers-trust-badges-promo">`) {
		t.Errorf("expected root container, got %s", f.HTML)
	}
	if strings.Contains(f.HTML, "<img") || strings.Contains(f.HTML, `class="badge-container"`) {
		t.Errorf("expected zero badges, got %s", f.HTML)
	}
}

func TestRender_BadgeIndexCountsRenderedBadges(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.SelectedBadges = []string{"visa-1", "nope", "stripe"}
	})

	f := newTestRenderer().Render("promo", s, PlacementInline)

	if strings.Count(f.HTML, "<img") != 2 {
		t.Errorf("expected 2 images, got %s", f.HTML)
	}
	if !strings.Contains(f.HTML, "--badge-index: 1;") || strings.Contains(f.HTML, "--badge-index: 2;") {
		t.Errorf("expected indexes 0 and 1 only, got %s", f.HTML)
	}
	if !strings.Contains(f.HTML, `src="/static/badges/stripe_color.svg"`) {
		t.Errorf("expected asset URL, got %s", f.HTML)
	}
}

func TestRender_ScopedSelectors(t *testing.T) {
	r := newTestRenderer()
	a := r.Render("a", badgegroups.Defaults(), PlacementFooter)
	b := r.Render("b", badgegroups.Defaults(), PlacementInline)

	assertScoped(t, a.CSS, "#convers-trust-badges-a")
	assertScoped(t, b.CSS, "#convers-trust-badges-b")

	if strings.Contains(a.CSS, "#convers-trust-badges-b") || strings.Contains(b.CSS, "#convers-trust-badges-a") {
		t.Error("stylesheets reference each other's container")
	}
}

// assertScoped checks that every rule outside at-rules and keyframe steps
// starts with root.
func assertScoped(t *testing.T, css, root string) {
	t.Helper()
	for _, line := range strings.Split(css, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "{") && !strings.HasSuffix(line, ",") {
			continue
		}
		if strings.HasPrefix(line, "@") || (line[0] >= '0' && line[0] <= '9') {
			continue
		}
		if !strings.HasPrefix(line, root) {
			t.Errorf("selector not scoped to %s: %q", root, line)
		}
	}
}

func TestRender_MonoStyleUsesMask(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.BadgeStyle = badgegroups.StyleMonoCard
		s.BadgeColor = "#ff0000"
		s.SelectedBadges = []string{"visa-1"}
	})

	f := newTestRenderer().Render("promo", s, PlacementInline)

	if strings.Contains(f.HTML, "<img") {
		t.Errorf("mono badges should not render images, got %s", f.HTML)
	}
	for _, want := range []string{
		"-webkit-mask: url(/static/badges/visa_1_color.svg) center/contain no-repeat;",
		"background-color: #ff0000;",
		"style-mono-card",
	} {
		if !strings.Contains(f.HTML, want) {
			t.Errorf("expected %q in %s", want, f.HTML)
		}
	}
}

func TestRender_Animation(t *testing.T) {
	none := newTestRenderer().Render("promo", settingsWith(func(s *badgegroups.BadgeSettings) {
		s.Animation = badgegroups.AnimationNone
	}), PlacementInline)
	if strings.Contains(none.CSS, "@keyframes") || strings.Contains(none.HTML, "badge-fade") {
		t.Error("expected no animation output")
	}

	kinds := map[string]string{
		badgegroups.AnimationFade:   "@keyframes badgeFadeIn",
		badgegroups.AnimationSlide:  "@keyframes badgeSlideIn",
		badgegroups.AnimationScale:  "@keyframes badgeScaleIn",
		badgegroups.AnimationBounce: "@keyframes badgeBounceIn",
	}
	for kind, keyframe := range kinds {
		t.Run(kind, func(t *testing.T) {
			f := newTestRenderer().Render("promo", settingsWith(func(s *badgegroups.BadgeSettings) {
				s.Animation = kind
			}), PlacementInline)
			if !strings.Contains(f.CSS, keyframe) {
				t.Errorf("expected %s", keyframe)
			}
			if !strings.Contains(f.CSS, "calc(var(--badge-index, 0) * 0.1s)") {
				t.Error("expected stagger delay")
			}
			if !strings.Contains(f.HTML, "badge-"+kind) {
				t.Errorf("expected badge-%s class", kind)
			}
		})
	}
}

func TestRender_CustomMargin(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.SelectedBadges = []string{"visa-1"}
		s.MarginTop, s.MarginRight, s.MarginBottom, s.MarginLeft = "1", "2", "-3", "4"
	})

	off := newTestRenderer().Render("promo", s, PlacementInline)
	if strings.Contains(off.HTML, "margin:") {
		t.Errorf("expected no margin without customMargin, got %s", off.HTML)
	}

	s.CustomMargin = true
	on := newTestRenderer().Render("promo", s, PlacementInline)
	if !strings.Contains(on.HTML, "margin: 1px 2px -3px 4px;") {
		t.Errorf("expected margin declaration, got %s", on.HTML)
	}
}

func TestRender_HeaderIsEscaped(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.HeaderText = `<script>alert(1)</script>`
	})

	f := newTestRenderer().Render("promo", s, PlacementInline)
	if strings.Contains(f.HTML, "<script>") || !strings.Contains(f.HTML, "&lt;script&gt;") {
		t.Errorf("header not escaped: %s", f.HTML)
	}

	s.ShowHeader = false
	f = newTestRenderer().Render("promo", s, PlacementInline)
	if strings.Contains(f.HTML, "trust-badges-header") {
		t.Error("expected header to be hidden")
	}
}

func TestRender_InvalidValuesDegradeToDefaults(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.BadgeAlignment = "diagonal"
		s.BadgeStyle = "neon"
		s.TextColor = "red;position:fixed"
		s.FontSize = "huge"
	})

	f := newTestRenderer().Render("promo", s, PlacementInline)
	for _, want := range []string{"align-center", "style-original", "color: #000000;", "font-size: 18px;"} {
		if !strings.Contains(f.HTML, want) {
			t.Errorf("expected %q in %s", want, f.HTML)
		}
	}
}

func TestRender_FooterPlacement(t *testing.T) {
	s := settingsWith(func(s *badgegroups.BadgeSettings) {
		s.Position = badgegroups.AlignRight
	})

	f := newTestRenderer().Render("footer", s, PlacementFooter)

	if !strings.HasPrefix(f.HTML, `<div id="convers-trust-badges-footer" class="convers-trust-badges-footer">`) {
		t.Errorf("expected footer class on root, got %s", f.HTML)
	}
	for _, want := range []string{
		"#convers-trust-badges-footer.convers-trust-badges-footer {\n    width: 100%;\n    padding: 20px;",
		".convers-trust-badges-footer .trust-badges-wrapper {\n    justify-content: flex-end;",
		"padding: 15px;",
	} {
		if !strings.Contains(f.CSS, want) {
			t.Errorf("expected %q in footer CSS", want)
		}
	}

	inline := newTestRenderer().Render("footer", s, PlacementInline)
	if strings.Contains(inline.CSS, "padding: 20px") {
		t.Error("inline placement should not carry footer padding")
	}
}
