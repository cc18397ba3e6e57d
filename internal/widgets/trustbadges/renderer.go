// Package trustbadges renders badge groups into the HTML and CSS fragments
// a storefront page embeds, and decides which group renders at which
// trigger point.
package trustbadges

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/converswp/trustbadges/internal/plugins/badgegroups"
)

// Container ids and classes shared by the markup and the stylesheet.
const (
	containerIDPrefix = "convers-trust-badges-"
	footerClass       = "convers-trust-badges-footer"
	badgeAlt          = "converswp-trust-badge"
)

// Placement says where on the page a fragment is going.
type Placement int

const (
	PlacementInline Placement = iota
	PlacementFooter
)

// Fragment is a rendered group: markup plus a stylesheet scoped to it.
type Fragment struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

// ImageLookup resolves a badge id to an image filename.
type ImageLookup interface {
	Lookup(id string) (string, bool)
}

// Renderer turns group settings into fragments. It does no I/O and is safe
// for concurrent use.
type Renderer struct {
	images       ImageLookup
	assetBaseURL string
}

// NewRenderer creates a renderer that prefixes image filenames with
// assetBaseURL.
func NewRenderer(images ImageLookup, assetBaseURL string) *Renderer {
	if assetBaseURL != "" && !strings.HasSuffix(assetBaseURL, "/") {
		assetBaseURL += "/"
	}
	return &Renderer{images: images, assetBaseURL: assetBaseURL}
}

// ContainerID returns the id of the root element for a group.
func ContainerID(groupID string) string {
	return containerIDPrefix + groupID
}

// Render produces the fragment for one group. Values outside the schema
// fall back to their defaults, and badge ids missing from the catalog are
// skipped.
func (r *Renderer) Render(groupID string, s badgegroups.BadgeSettings, placement Placement) Fragment {
	v := resolve(s)
	return Fragment{
		HTML: r.markup(groupID, s, v, placement),
		CSS:  stylesheet("#"+cssIdent(ContainerID(groupID)), v, placement),
	}
}

// --- Markup ---

func (r *Renderer) markup(groupID string, s badgegroups.BadgeSettings, v resolved, placement Placement) string {
	var b strings.Builder

	b.WriteString(`<div id="`)
	b.WriteString(templ.EscapeString(ContainerID(groupID)))
	b.WriteString(`"`)
	if placement == PlacementFooter {
		b.WriteString(` class="` + footerClass + `"`)
	}
	b.WriteString(`>`)

	classes := "convers-trust-badges align-" + v.badgeAlignment
	if v.animation != "" {
		classes += " badge-" + v.animation
	}
	fmt.Fprintf(&b, `<div class="%s">`, classes)

	if s.ShowHeader {
		fmt.Fprintf(&b,
			`<div class="trust-badges-header" style="font-size: %spx;color: %s;text-align: %s;">%s</div>`,
			v.fontSize, v.textColor, v.alignment, templ.EscapeString(s.HeaderText),
		)
	}

	fmt.Fprintf(&b,
		`<div class="trust-badges-wrapper style-%s" style="display: flex;flex-wrap: wrap;gap: 10px;justify-content: %s;align-items: stretch;">`,
		v.style, justify(v.badgeAlignment),
	)

	margin := marginStyle(s, v)
	index := 0
	for _, id := range s.SelectedBadges {
		file, ok := r.images.Lookup(id)
		if !ok {
			continue
		}
		url := templ.EscapeString(string(templ.URL(r.assetBaseURL + file)))

		fmt.Fprintf(&b, `<div class="badge-container" style="--badge-index: %d;%s">`, index, margin)
		if v.mono() {
			fmt.Fprintf(&b,
				`<div class="badge-image" style="-webkit-mask: url(%[1]s) center/contain no-repeat;mask: url(%[1]s) center/contain no-repeat;background-color: %[2]s;width: %[3]dpx;height: %[3]dpx;transition: all 0.3s ease;"></div>`,
				url, v.badgeColor, v.mobilePx,
			)
		} else {
			fmt.Fprintf(&b,
				`<img src="%[1]s" alt="%[2]s" class="badge-image" style="width: %[3]dpx;height: auto;max-height: %[3]dpx;transition: all 0.3s ease;object-fit: contain;" />`,
				url, badgeAlt, v.mobilePx,
			)
		}
		b.WriteString(`</div>`)
		index++
	}

	b.WriteString(`</div></div></div>`)
	return b.String()
}

// marginStyle returns the per-badge margin declaration, or nothing when
// custom margins are off.
func marginStyle(s badgegroups.BadgeSettings, v resolved) string {
	if !s.CustomMargin {
		return ""
	}
	return fmt.Sprintf("margin: %dpx %dpx %dpx %dpx;", v.margins[0], v.margins[1], v.margins[2], v.margins[3])
}

// --- Value resolution ---

// sizePixels maps size names to badge widths.
var sizePixels = map[string]int{
	badgegroups.SizeExtraSmall: 32,
	badgegroups.SizeSmall:      48,
	badgegroups.SizeMedium:     64,
	badgegroups.SizeLarge:      80,
}

// fallbackSizePx is used for a size name not in sizePixels.
const fallbackSizePx = 48

// resolved holds the render-ready values derived from a settings record.
type resolved struct {
	alignment      string
	badgeAlignment string
	position       string
	style          string
	animation      string
	fontSize       string
	textColor      string
	badgeColor     string
	desktopPx      int
	mobilePx       int
	margins        [4]int
}

func (v resolved) mono() bool {
	return v.style == badgegroups.StyleMono || v.style == badgegroups.StyleMonoCard
}

func resolve(s badgegroups.BadgeSettings) resolved {
	d := badgegroups.Defaults()
	aligns := []string{badgegroups.AlignLeft, badgegroups.AlignCenter, badgegroups.AlignRight}

	return resolved{
		alignment:      oneOf(s.Alignment, aligns, d.Alignment),
		badgeAlignment: oneOf(s.BadgeAlignment, aligns, d.BadgeAlignment),
		position:       oneOf(s.Position, aligns, d.Position),
		style: oneOf(s.BadgeStyle, []string{
			badgegroups.StyleOriginal, badgegroups.StyleCard, badgegroups.StyleMono, badgegroups.StyleMonoCard,
		}, d.BadgeStyle),
		animation: oneOf(s.Animation, []string{
			badgegroups.AnimationNone, badgegroups.AnimationFade, badgegroups.AnimationSlide,
			badgegroups.AnimationScale, badgegroups.AnimationBounce,
		}, d.Animation),
		fontSize:   number(s.FontSize, d.FontSize),
		textColor:  color(s.TextColor, d.TextColor),
		badgeColor: color(s.BadgeColor, d.BadgeColor),
		desktopPx:  sizePx(s.BadgeSizeDesktop),
		mobilePx:   sizePx(s.BadgeSizeMobile),
		margins: [4]int{
			integer(s.MarginTop), integer(s.MarginRight), integer(s.MarginBottom), integer(s.MarginLeft),
		},
	}
}

func sizePx(name string) int {
	if px, ok := sizePixels[name]; ok {
		return px
	}
	return fallbackSizePx
}

// justify maps an alignment to a flexbox justify-content value.
func justify(alignment string) string {
	switch alignment {
	case badgegroups.AlignLeft:
		return "flex-start"
	case badgegroups.AlignRight:
		return "flex-end"
	}
	return "center"
}

func oneOf(v string, allowed []string, def string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

func color(v, def string) string {
	if badgegroups.IsColor(v) {
		return v
	}
	return def
}

func number(v, def string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func integer(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// cssIdent escapes characters that may not appear unescaped in a CSS id
// selector.
func cssIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, `\%x `, r)
			} else {
				b.WriteRune(r)
			}
		default:
			fmt.Fprintf(&b, `\%x `, r)
		}
	}
	return b.String()
}
