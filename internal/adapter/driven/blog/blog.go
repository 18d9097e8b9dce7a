// Package blog implements the NoteSource port by scraping the project blog.
package blog

import (
	"bytes"
	"context"
	"fmt"
	stdhtml "html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// ExcerptLength is the number of characters of the post body kept.
const ExcerptLength = 150

const maxBody = 4 << 20

// titleRE matches note links such as "[10/15/2026] Double points week".
var titleRE = regexp.MustCompile(`^\s*\[(\d{1,2}/\d{1,2}/\d{4})]\s+(.+?)\s*$`)

// Compile-time interface satisfaction check.
var _ driven.NoteSource = (*Fetcher)(nil)

// Fetcher reads the newest note from the blog index page.
type Fetcher struct {
	client *http.Client
	strict *bluemonday.Policy
}

// NewFetcher creates a Fetcher whose requests go through an in-memory HTTP
// cache, so reopening the note on the same day is served by revalidation.
func NewFetcher() *Fetcher {
	return NewFetcherWithHTTPClient(httpcache.NewMemoryCacheTransport().Client())
}

// NewFetcherWithHTTPClient creates a Fetcher with a custom http.Client.
func NewFetcherWithHTTPClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, strict: bluemonday.StrictPolicy()}
}

// Latest finds the first dated note link on blogURL and returns the note
// with an excerpt of its body.
func (f *Fetcher) Latest(ctx context.Context, blogURL string) (*model.Note, error) {
	base, err := url.Parse(blogURL)
	if err != nil {
		return nil, fmt.Errorf("parse blog url: %w", err)
	}

	index, err := f.fetch(ctx, base.String())
	if err != nil {
		return nil, err
	}

	note, href, ok := findNoteLink(index)
	if !ok {
		return nil, fmt.Errorf("no dated note on %s: %w", blogURL, driven.ErrNotFound)
	}
	link, err := base.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("parse note link %q: %w", href, err)
	}
	note.URL = link.String()

	post, err := f.fetch(ctx, note.URL)
	if err != nil {
		return nil, err
	}
	body := findByClass(post, "div", "post-body")
	if body == nil {
		return nil, fmt.Errorf("note %s has no post body", note.URL)
	}
	note.Excerpt = excerpt(f.plainText(body), ExcerptLength)
	return note, nil
}

func (f *Fetcher) fetch(ctx context.Context, target string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "art/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: http %d", target, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}
	return doc, nil
}

// plainText renders n back to HTML and lets the strict policy drop every
// tag, including script and style content.
func (f *Fetcher) plainText(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
		buf.WriteByte(' ')
	}
	return stdhtml.UnescapeString(f.strict.Sanitize(buf.String()))
}

func findNoteLink(doc *html.Node) (*model.Note, string, bool) {
	var (
		note *model.Note
		href string
	)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "a" {
			return true
		}
		m := titleRE.FindStringSubmatch(textOf(n))
		if m == nil {
			return true
		}
		posted, err := time.ParseInLocation("1/2/2006", m[1], time.Local)
		if err != nil {
			return true
		}
		note = &model.Note{Posted: posted, Title: m[2]}
		href = attr(n, "href")
		return false
	})
	return note, href, note != nil && href != ""
}

func findByClass(doc *html.Node, tag, class string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag && hasClass(n, class) {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

// excerpt collapses whitespace and keeps the first n characters.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
