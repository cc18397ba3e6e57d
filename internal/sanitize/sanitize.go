// Package sanitize strips markup from admin-supplied display strings (group
// names, catalog badge names) before they are stored. Uses bluemonday's
// strict policy so no element or attribute survives.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy. Initialized once via sync.Once
// for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text removes all HTML from input and returns plain text. Entities produced
// by the sanitizer are decoded again so names round-trip as typed ("A & B"
// stays "A & B"); renderers escape on output. Surrounding whitespace is
// trimmed and interior whitespace runs collapse to a single space.
//
// Text is idempotent: Text(Text(s)) == Text(s).
func Text(input string) string {
	if input == "" {
		return ""
	}
	stripped := html.UnescapeString(getPolicy().Sanitize(input))
	// A decoded "&lt;b&gt;" would become markup again on the next pass.
	stripped = strings.NewReplacer("<", "", ">", "").Replace(stripped)
	return strings.Join(strings.Fields(stripped), " ")
}
