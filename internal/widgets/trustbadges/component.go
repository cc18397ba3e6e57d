package trustbadges

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Component writes a fragment as a <style> element followed by its markup,
// ready to be injected into a host page.
func Component(f Fragment) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if f.CSS != "" {
			if _, err := io.WriteString(w, "<style>\n"+f.CSS+"</style>\n"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, f.HTML)
		return err
	})
}

// SkippedComment writes an HTML comment recording why nothing rendered, so
// an empty embed is distinguishable from a broken one.
func SkippedComment(groupID, reason string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<!-- trust badges: "+templ.EscapeString(groupID)+" skipped ("+templ.EscapeString(reason)+") -->")
		return err
	})
}
