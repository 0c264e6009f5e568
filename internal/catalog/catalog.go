// Package catalog answers read-only queries over a Store snapshot.
//
// Listings only ever contain published articles, newest first, with the slug
// as ascending tie-break so equal dates still order deterministically.
// FindBySlug is the one query that also resolves unpublished articles, which
// keeps preview permalinks working.
package catalog

import (
	"cmp"
	"slices"

	"bytesite/internal/domain/content"
)

type Catalog struct {
	store *Store
}

type TagCount struct {
	Name  string
	Count int
}

func New(store *Store) *Catalog {
	if store == nil {
		store = &Store{}
	}
	return &Catalog{store: store}
}

func (c *Catalog) Len() int {
	return c.store.Len()
}

func (c *Catalog) ListPublished() []content.Article {
	return c.published(func(content.Article) bool { return true })
}

// FindBySlug does not check Published.
func (c *Catalog) FindBySlug(slug string) (content.Article, bool) {
	for a := range c.store.All() {
		if a.Meta.Slug == slug {
			return a, true
		}
	}
	return content.Article{}, false
}

func (c *Catalog) ListByTag(tag string) []content.Article {
	return c.published(func(a content.Article) bool {
		return a.Meta.HasTag(tag)
	})
}

// ListAllTags returns the distinct tags of published articles, sorted.
func (c *Catalog) ListAllTags() []string {
	set := make(map[string]struct{})
	for a := range c.store.All() {
		if !a.Meta.Published {
			continue
		}
		for _, t := range a.Meta.Tags {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// ListRecent returns at most n published articles.
func (c *Catalog) ListRecent(n int) []content.Article {
	if n <= 0 {
		return []content.Article{}
	}
	all := c.ListPublished()
	if n > len(all) {
		n = len(all)
	}
	return all[:n:n]
}

// TagCounts orders by count descending, then name.
func (c *Catalog) TagCounts() []TagCount {
	counts := make(map[string]int)
	for a := range c.store.All() {
		if !a.Meta.Published {
			continue
		}
		for _, t := range a.Meta.Tags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, TagCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func (c *Catalog) published(keep func(content.Article) bool) []content.Article {
	out := make([]content.Article, 0, c.store.Len())
	for a := range c.store.All() {
		if !a.Meta.Published || !keep(a) {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, compareNewest)
	return out
}

func compareNewest(a, b content.Article) int {
	if c := b.Meta.Date.Compare(a.Meta.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.Meta.Slug, b.Meta.Slug)
}
