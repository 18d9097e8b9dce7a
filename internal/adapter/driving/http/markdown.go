package httphandler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/shilph/art/internal/domain/model"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// noteMarkdown lays out the note of the day as a markdown card.
func noteMarkdown(n *model.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", n.Title)
	if !n.Posted.IsZero() {
		fmt.Fprintf(&b, "_%s_\n\n", n.Posted.Format("January 2, 2006"))
	}
	if n.Excerpt != "" {
		fmt.Fprintf(&b, "%s...\n\n", n.Excerpt)
	}
	if n.URL != "" {
		fmt.Fprintf(&b, "[read more](%s)\n", n.URL)
	}
	return b.String()
}
