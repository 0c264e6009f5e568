package content

import (
	"slices"
	"strings"
	"time"
)

// BlogPrefix is the path every article URL hangs off.
const BlogPrefix = "/blog/"

type ArticleMeta struct {
	Title       string
	Slug        string
	Date        time.Time
	Description string

	// Display order is kept; matching against a tag is exact.
	Tags      []string
	Published bool
}

type Body struct {
	// Raw is the Markdown source with the front matter stripped. Renderers
	// must treat it as read-only.
	Raw         string
	SourcePath  string
	ContentHash string
}

type Article struct {
	Meta ArticleMeta
	Body Body
}

// URL is the canonical path of the article.
func (a Article) URL() string {
	return URL(a.Meta.Slug)
}

func URL(slug string) string {
	return BlogPrefix + slug
}

// IsPathSegment reports whether s can name exactly one directory under the
// output root: not empty, not "." or "..", and free of separators and
// URL delimiters.
func IsPathSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\?#`)
}

// HasTag reports whether tag is one of the article's tags.
func (m ArticleMeta) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

func (m *ArticleMeta) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Slug = strings.TrimSpace(m.Slug)
	m.Description = strings.TrimSpace(m.Description)
	m.Tags = normalizeStrings(m.Tags)
	if !m.Date.IsZero() {
		y, mo, d := m.Date.Date()
		m.Date = time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	}
}

// Clone returns a copy that shares no slices with a.
func (a Article) Clone() Article {
	a.Meta.Tags = slices.Clone(a.Meta.Tags)
	return a
}

// Page is a standalone Markdown page outside the blog, such as an app
// privacy policy.
type Page struct {
	Title    string
	Slug     string
	Subtitle string
	Updated  time.Time
	Body     Body
}

func (p Page) URL() string {
	return "/" + p.Slug
}

func normalizeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
