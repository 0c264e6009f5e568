package app

import (
	"fmt"
	"strings"

	"bytesite/internal/catalog"
	"bytesite/internal/domain/config"
	"bytesite/internal/domain/content"
	"bytesite/internal/ingest"
)

// Paths the site owns itself; a page may not take them.
var reservedSlugs = map[string]struct{}{
	"blog":    {},
	"dev":     {},
	"healthz": {},
	"metrics": {},
	"404":     {},
	"css":     {},
	"js":      {},
	"images":  {},
}

// Content is one immutable snapshot of the site sources.
type Content struct {
	Catalog  *catalog.Catalog
	Articles []content.Article
	Pages    []content.Page
	Warnings []ingest.Warning

	pages map[string]content.Page
}

func LoadContent(cfg config.BlogConfig) (*Content, error) {
	arts, warns, err := ingest.Ingest(cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("ingest articles: %w", err)
	}
	store, err := catalog.NewStore(arts)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	var pages []content.Page
	if strings.TrimSpace(cfg.PagesDir) != "" {
		loaded, pageWarns, err := ingest.IngestPages(cfg.PagesDir)
		if err != nil {
			return nil, fmt.Errorf("ingest pages: %w", err)
		}
		warns = append(warns, pageWarns...)
		for _, p := range loaded {
			if _, ok := reservedSlugs[p.Slug]; ok || !content.IsPathSegment(p.Slug) {
				warns = append(warns, ingest.Warning{
					Path: p.Body.SourcePath,
					Msg:  "page slug is reserved or not a single path segment, skipped: " + p.Slug,
				})
				continue
			}
			pages = append(pages, p)
		}
	}

	return NewContent(catalog.New(store), arts, pages, warns), nil
}

func NewContent(cat *catalog.Catalog, arts []content.Article, pages []content.Page, warns []ingest.Warning) *Content {
	c := &Content{
		Catalog:  cat,
		Articles: arts,
		Pages:    pages,
		Warnings: warns,
		pages:    make(map[string]content.Page, len(pages)),
	}
	for _, p := range pages {
		c.pages[p.Slug] = p
	}
	return c
}

func (c *Content) Page(slug string) (content.Page, bool) {
	p, ok := c.pages[slug]
	return p, ok
}
