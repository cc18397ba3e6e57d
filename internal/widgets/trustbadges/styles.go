package trustbadges

import (
	"fmt"
	"strings"
)

// Layout constants of the badge stylesheet.
const (
	badgePaddingPx    = 5
	badgeGapPx        = 10
	containerMarginPx = 15
	borderRadiusPx    = 4
	hoverTransform    = "translateY(-2px)"
	transition        = "all 0.3s ease"
	desktopBreakpoint = 768
)

// staggerDelay offsets each badge's animation by its position.
const staggerDelay = "animation-delay: calc(var(--badge-index, 0) * 0.1s);"

// keyframes holds the animation rule and keyframe block per animation kind.
// $root stands for the scoped root selector.
var keyframes = map[string]string{
	"fade": `$root .badge-fade .badge-container {
    animation: badgeFadeIn 0.5s ease forwards;
    ` + staggerDelay + `
}
@keyframes badgeFadeIn {
    0% { opacity: 0; }
    100% { opacity: 1; }
}
`,
	"slide": `$root .badge-slide .badge-container {
    transform: translateY(20px);
    animation: badgeSlideIn 0.5s ease forwards;
    ` + staggerDelay + `
}
@keyframes badgeSlideIn {
    0% { opacity: 0; transform: translateY(20px); }
    100% { opacity: 1; transform: translateY(0); }
}
`,
	"scale": `$root .badge-scale .badge-container {
    transform: scale(0.8);
    animation: badgeScaleIn 0.5s ease forwards;
    ` + staggerDelay + `
}
@keyframes badgeScaleIn {
    0% { opacity: 0; transform: scale(0.8); }
    100% { opacity: 1; transform: scale(1); }
}
`,
	"bounce": `$root .badge-bounce .badge-container {
    animation: badgeBounceIn 0.6s cubic-bezier(0.36, 0, 0.66, -0.56) forwards;
    ` + staggerDelay + `
}
@keyframes badgeBounceIn {
    0% { opacity: 0; transform: scale(0.3); }
    50% { opacity: 0.9; transform: scale(1.1); }
    80% { opacity: 1; transform: scale(0.89); }
    100% { opacity: 1; transform: scale(1); }
}
`,
}

// stylesheet builds the CSS for one group. Every rule is prefixed with
// root, the group's container id selector.
func stylesheet(root string, v resolved, placement Placement) string {
	var b strings.Builder

	fmt.Fprintf(&b, `%[1]s .convers-trust-badges {
    margin: %[2]dpx 0;
    width: 100%%;
}
%[1]s .trust-badges-wrapper {
    display: flex;
    flex-wrap: wrap;
    gap: %[3]dpx;
    align-items: stretch;
    width: 100%%;
}
%[1]s .badge-container {
    display: inline-flex;
    align-items: center;
    justify-content: center;
    padding: %[4]dpx;
    transition: %[5]s;
}
`, root, containerMarginPx, badgeGapPx, badgePaddingPx, transition)

	// Mobile first; the media query widens badges on desktop.
	fmt.Fprintf(&b, `%[1]s .badge-image {
    width: %[2]dpx !important;
    height: auto !important;
    max-height: %[2]dpx !important;
    transition: %[3]s;
    object-fit: contain;
}
%[1]s .style-mono .badge-image,
%[1]s .style-mono-card .badge-image {
    width: %[2]dpx !important;
    height: %[2]dpx !important;
    -webkit-mask-size: contain;
    mask-size: contain;
    -webkit-mask-repeat: no-repeat;
    mask-repeat: no-repeat;
    -webkit-mask-position: center;
    mask-position: center;
    background-color: %[4]s;
}
@media screen and (min-width: %[5]dpx) {
    %[1]s .badge-image {
        width: %[6]dpx !important;
        max-height: %[6]dpx !important;
    }
    %[1]s .style-mono .badge-image,
    %[1]s .style-mono-card .badge-image {
        width: %[6]dpx !important;
        height: %[6]dpx !important;
    }
}
`, root, v.mobilePx, transition, v.badgeColor, desktopBreakpoint, v.desktopPx)

	fmt.Fprintf(&b, `%[1]s .badge-container:hover {
    transform: %[2]s;
}
%[1]s .badge-container:hover .badge-image {
    transform: scale(1.05);
}
%[1]s .style-card .badge-container,
%[1]s .style-mono-card .badge-container {
    background-color: #e5e7eb;
    padding: %[3]dpx %[4]dpx;
    border-radius: %[5]dpx;
}
%[1]s .align-left .trust-badges-wrapper { justify-content: flex-start; }
%[1]s .align-center .trust-badges-wrapper { justify-content: center; }
%[1]s .align-right .trust-badges-wrapper { justify-content: flex-end; }
`, root, hoverTransform, badgePaddingPx+3, badgePaddingPx+7, borderRadiusPx)

	if tmpl, ok := keyframes[v.animation]; ok {
		fmt.Fprintf(&b, "%[1]s .convers-trust-badges { opacity: 1; }\n%[1]s .badge-container { opacity: 0; }\n", root)
		b.WriteString(strings.ReplaceAll(tmpl, "$root", root))
	}

	if placement == PlacementFooter {
		fmt.Fprintf(&b, `%[1]s.%[2]s {
    width: 100%%;
    padding: 20px;
}
%[1]s.%[2]s .trust-badges-wrapper {
    justify-content: %[3]s;
}
@media screen and (max-width: %[4]dpx) {
    %[1]s.%[2]s {
        padding: 15px;
    }
}
`, root, footerClass, justify(v.position), desktopBreakpoint)
	}

	return b.String()
}
