package site

import (
	"fmt"
	"strings"
)

type RouteKind string

const (
	RouteHome     RouteKind = "home"
	RouteBlog     RouteKind = "blog"
	RoutePost     RouteKind = "post"
	RouteTag      RouteKind = "tag"
	RouteTags     RouteKind = "tags"
	RoutePage     RouteKind = "page"
	RouteNotFound RouteKind = "404"
)

// Route is one page of the site. Key holds the slug or tag the page is
// about; OutPath is relative to the output directory.
type Route struct {
	Kind    RouteKind
	Key     string
	URL     string
	OutPath string
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Key != "" {
		parts = append(parts, "key="+r.Key)
	}
	if r.URL != "" {
		parts = append(parts, "url="+r.URL)
	}
	if r.OutPath != "" {
		parts = append(parts, fmt.Sprintf("out=%s", r.OutPath))
	}
	return strings.Join(parts, " ")
}
