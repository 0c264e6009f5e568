package app

import (
	"context"
	"fmt"
	"path/filepath"

	"bytesite/internal/domain/content"
	"bytesite/internal/domain/site"
	"bytesite/internal/render"
)

// RouteBuilder lists every page a static build writes. Unpublished articles
// have no route.
type RouteBuilder struct {
	Content *Content
}

func (rb *RouteBuilder) Routes() []site.Route {
	routes := []site.Route{
		{Kind: site.RouteHome, URL: "/", OutPath: "index.html"},
		{Kind: site.RouteBlog, URL: "/blog", OutPath: filepath.Join("blog", "index.html")},
		{Kind: site.RouteTags, URL: "/blog/tags", OutPath: filepath.Join("blog", "tags", "index.html")},
	}
	routes = append(routes, rb.BuildPostRoutes()...)
	routes = append(routes, rb.BuildTagRoutes()...)
	routes = append(routes, rb.BuildPageRoutes()...)
	routes = append(routes, site.Route{Kind: site.RouteNotFound, OutPath: "404.html"})
	return routes
}

func (rb *RouteBuilder) BuildPostRoutes() []site.Route {
	var routes []site.Route
	for _, a := range rb.Content.Catalog.ListPublished() {
		if !content.IsPathSegment(a.Meta.Slug) {
			continue
		}
		routes = append(routes, site.Route{
			Kind:    site.RoutePost,
			Key:     a.Meta.Slug,
			URL:     a.URL(),
			OutPath: filepath.Join("blog", a.Meta.Slug, "index.html"),
		})
	}
	return routes
}

// BuildTagRoutes skips tags that cannot be a single directory name.
func (rb *RouteBuilder) BuildTagRoutes() []site.Route {
	var routes []site.Route
	for _, tag := range rb.Content.Catalog.ListAllTags() {
		if !content.IsPathSegment(tag) {
			continue
		}
		routes = append(routes, site.Route{
			Kind:    site.RouteTag,
			Key:     tag,
			URL:     render.TagURL(tag),
			OutPath: filepath.Join("blog", "tags", tag, "index.html"),
		})
	}
	return routes
}

func (rb *RouteBuilder) BuildPageRoutes() []site.Route {
	var routes []site.Route
	for _, p := range rb.Content.Pages {
		routes = append(routes, site.Route{
			Kind:    site.RoutePage,
			Key:     p.Slug,
			URL:     p.URL(),
			OutPath: filepath.Join(p.Slug, "index.html"),
		})
	}
	return routes
}

// RenderRoute renders the page behind one route.
func RenderRoute(ctx context.Context, asm *Assembler, tpl render.Renderer, c *Content, r site.Route) ([]byte, error) {
	switch r.Kind {
	case site.RouteHome:
		return tpl.RenderHome(ctx, asm.Home(ctx, c))
	case site.RouteBlog:
		return tpl.RenderBlog(ctx, asm.Blog(c))
	case site.RouteTags:
		return tpl.RenderTagsPage(ctx, asm.Tags(c))
	case site.RoutePost:
		page, ok, err := asm.Post(c, r.Key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("post %s not found", r.Key)
		}
		return tpl.RenderPost(ctx, page)
	case site.RouteTag:
		page, ok := asm.Tag(c, r.Key)
		if !ok {
			return nil, fmt.Errorf("tag %s has no posts", r.Key)
		}
		return tpl.RenderTag(ctx, page)
	case site.RoutePage:
		page, ok, err := asm.Page(c, r.Key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("page %s not found", r.Key)
		}
		return tpl.RenderPage(ctx, page)
	case site.RouteNotFound:
		return tpl.RenderNotFound(ctx, asm.NotFound(""))
	default:
		return nil, fmt.Errorf("unknown route kind %q", r.Kind)
	}
}
