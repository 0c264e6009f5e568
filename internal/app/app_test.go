package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bytesite/internal/catalog"
	"bytesite/internal/domain/config"
	"bytesite/internal/domain/content"
	"bytesite/internal/domain/site"
	"bytesite/internal/github"
	"bytesite/internal/render"
)

var fixedNow = time.Date(2025, 12, 21, 9, 0, 0, 0, time.UTC)

func article(slug, date string, published bool, body string, tags ...string) content.Article {
	d, _ := time.Parse(time.DateOnly, date)
	return content.Article{
		Meta: content.ArticleMeta{
			Title:       strings.ToUpper(slug),
			Slug:        slug,
			Date:        d,
			Description: "about " + slug,
			Tags:        tags,
			Published:   published,
		},
		Body: content.Body{Raw: body, ContentHash: slug},
	}
}

func testContent(t *testing.T) *Content {
	t.Helper()
	arts := []content.Article{
		article("jan", "2025-01-10", true, "# Jan\n\nhello world", "go"),
		article("feb", "2025-02-10", true, "two words", "go", "Open Source"),
		article("mar", "2025-03-10", true, "", "android"),
		article("apr-draft", "2025-04-10", false, "draft body", "go", "secret"),
	}
	store, err := catalog.NewStore(arts)
	require.NoError(t, err)
	pages := []content.Page{{
		Title:    "ConvertIt Privacy Policy",
		Slug:     "convertit-privacy",
		Subtitle: "How ConvertIt handles your data",
		Updated:  time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC),
		Body:     content.Body{Raw: "## Data\n\nNone is collected."},
	}}
	return NewContent(catalog.New(store), arts, pages, nil)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Site.SiteURL = "https://thebytearray.org"
	cfg.GitHub.Org = "TheByteArray"
	cfg.Blog.RecentCount = 2
	return cfg
}

type fakeRepos struct{ snap github.Snapshot }

func (f fakeRepos) Snapshot(context.Context) github.Snapshot { return f.snap }

func newAssembler(repos RepoSource) *Assembler {
	return NewAssembler(testConfig(), AssemblerOptions{
		Repos: repos,
		Now:   func() time.Time { return fixedNow },
	})
}

func postSlugs(posts []render.PostSummary) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Meta.Slug)
	}
	return out
}

func TestHomeRecentAndRepos(t *testing.T) {
	snap := github.Snapshot{
		Stats: github.Stats{TotalStars: 50, Contributors: 4},
	}
	for _, n := range []string{"a", "b", "c", "d"} {
		snap.Repos = append(snap.Repos, github.Repo{Name: n})
	}
	asm := newAssembler(fakeRepos{snap: snap})

	home := asm.Home(context.Background(), testContent(t))
	assert.Equal(t, []string{"mar", "feb"}, postSlugs(home.Recent))
	assert.Equal(t, "0 min read", home.Recent[0].Stats.ReadingTime)
	assert.Equal(t, "2 words", home.Recent[1].WordsLabel)

	assert.True(t, home.Repos.Enabled)
	assert.Len(t, home.Repos.Featured, 3)
	assert.Len(t, home.Repos.More, 1)
	assert.Equal(t, 50, home.Repos.TotalStars)
	assert.Equal(t, 4, home.Repos.Contributors)
	assert.Empty(t, home.Repos.Err)
	assert.Equal(t, "https://thebytearray.org/", home.Canonical)
	assert.True(t, fixedNow.Equal(home.Generated))
}

func TestHomeRepoError(t *testing.T) {
	asm := newAssembler(fakeRepos{snap: github.Snapshot{Err: errors.New("boom")}})
	home := asm.Home(context.Background(), testContent(t))
	assert.True(t, home.Repos.Enabled)
	assert.NotEmpty(t, home.Repos.Err)
	assert.Empty(t, home.Repos.Featured)
}

func TestHomeWithoutRepos(t *testing.T) {
	home := newAssembler(nil).Home(context.Background(), testContent(t))
	assert.False(t, home.Repos.Enabled)
}

func TestBlog(t *testing.T) {
	blog := newAssembler(nil).Blog(testContent(t))
	assert.Equal(t, []string{"mar", "feb", "jan"}, postSlugs(blog.Posts))
	assert.Equal(t, []string{"Open Source", "android", "go"}, blog.Tags)
}

func TestPost(t *testing.T) {
	asm := newAssembler(nil)
	page, ok, err := asm.Post(testContent(t), "jan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, page.IsDraft)
	assert.False(t, page.NoIndex)
	assert.Equal(t, "about jan", page.Description)
	assert.Contains(t, string(page.HTML), "hello world")
	require.Len(t, page.TOC, 1)
	assert.Equal(t, "Jan", page.TOC[0].Text)
	assert.Equal(t, "https://thebytearray.org/blog/jan", page.Canonical)
}

func TestPostDraftIsMarked(t *testing.T) {
	page, ok, err := newAssembler(nil).Post(testContent(t), "apr-draft")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, page.IsDraft)
	assert.True(t, page.NoIndex)
}

func TestPostMissing(t *testing.T) {
	_, ok, err := newAssembler(nil).Post(testContent(t), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTag(t *testing.T) {
	asm := newAssembler(nil)
	page, ok := asm.Tag(testContent(t), "go")
	require.True(t, ok)
	assert.Equal(t, []string{"feb", "jan"}, postSlugs(page.Posts))

	_, ok = asm.Tag(testContent(t), "secret")
	assert.False(t, ok, "tags used only by drafts have no page")
}

func TestTags(t *testing.T) {
	page := newAssembler(nil).Tags(testContent(t))
	require.Len(t, page.Tags, 3)
	assert.Equal(t, render.TagStat{Name: "go", Count: 2, URL: "/blog/tags/go"}, page.Tags[0])
	assert.Equal(t, "/blog/tags/Open%20Source", page.Tags[1].URL)
	assert.Equal(t, 3, page.Total)
}

func TestPage(t *testing.T) {
	page, ok, err := newAssembler(nil).Page(testContent(t), "convertit-privacy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ConvertIt Privacy Policy", page.PageTitle)
	assert.Contains(t, string(page.HTML), "None is collected.")
}

func TestRepoCard(t *testing.T) {
	long := strings.Repeat("x", 120)
	card := RepoCard(github.Repo{
		Name:        "ConvertIt",
		Description: long,
		Topics:      []string{"a", "b", "c", "d", "e"},
	})
	assert.True(t, card.LongSummary)
	assert.Equal(t, strings.Repeat("x", 100)+"...", card.Description)
	assert.Equal(t, long, card.FullDescription)
	assert.Equal(t, []string{"a", "b", "c"}, card.Topics)
	assert.Equal(t, 2, card.MoreTopics)

	short := RepoCard(github.Repo{Name: "hy2ng", Description: " VPN client "})
	assert.False(t, short.LongSummary)
	assert.Equal(t, "VPN client", short.Description)
	assert.Zero(t, short.MoreTopics)
}

func TestRoutes(t *testing.T) {
	rb := &RouteBuilder{Content: testContent(t)}
	routes := rb.Routes()

	byKind := map[site.RouteKind][]string{}
	for _, r := range routes {
		byKind[r.Kind] = append(byKind[r.Kind], r.OutPath)
	}
	assert.Equal(t, []string{"index.html"}, byKind[site.RouteHome])
	assert.Equal(t, []string{
		filepath.Join("blog", "mar", "index.html"),
		filepath.Join("blog", "feb", "index.html"),
		filepath.Join("blog", "jan", "index.html"),
	}, byKind[site.RoutePost])
	assert.Contains(t, byKind[site.RouteTag], filepath.Join("blog", "tags", "Open Source", "index.html"))
	assert.NotContains(t, byKind[site.RouteTag], filepath.Join("blog", "tags", "secret", "index.html"))
	assert.Equal(t, []string{filepath.Join("convertit-privacy", "index.html")}, byKind[site.RoutePage])
	assert.Equal(t, []string{"404.html"}, byKind[site.RouteNotFound])
}

func TestRoutesSkipSlugsOutsideTheirDirectory(t *testing.T) {
	arts := []content.Article{
		article("..", "2025-01-10", true, "up", "go"),
		article(`a\b`, "2025-01-11", true, "back", "go"),
		article("ok", "2025-01-12", true, "fine", "go"),
	}
	store, err := catalog.NewStore(arts)
	require.NoError(t, err)
	rb := &RouteBuilder{Content: NewContent(catalog.New(store), arts, nil, nil)}

	var posts []string
	for _, r := range rb.Routes() {
		if r.Kind == site.RoutePost {
			posts = append(posts, r.OutPath)
		}
	}
	assert.Equal(t, []string{filepath.Join("blog", "ok", "index.html")}, posts)
}

type recordingRenderer struct{ calls []string }

func (r *recordingRenderer) rec(name string) ([]byte, error) {
	r.calls = append(r.calls, name)
	return []byte(name), nil
}

func (r *recordingRenderer) RenderHome(context.Context, render.HomePage) ([]byte, error) {
	return r.rec("home")
}
func (r *recordingRenderer) RenderBlog(context.Context, render.BlogPage) ([]byte, error) {
	return r.rec("blog")
}
func (r *recordingRenderer) RenderPost(_ context.Context, p render.PostPage) ([]byte, error) {
	return r.rec("post:" + p.Post.Meta.Slug)
}
func (r *recordingRenderer) RenderTag(_ context.Context, p render.TagPage) ([]byte, error) {
	return r.rec("tag:" + p.Tag)
}
func (r *recordingRenderer) RenderTagsPage(context.Context, render.TagsPage) ([]byte, error) {
	return r.rec("tags")
}
func (r *recordingRenderer) RenderPage(_ context.Context, p render.StaticPage) ([]byte, error) {
	return r.rec("page:" + p.Page.Slug)
}
func (r *recordingRenderer) RenderNotFound(context.Context, render.NotFoundPage) ([]byte, error) {
	return r.rec("404")
}

func TestRenderRouteCoversEveryRoute(t *testing.T) {
	c := testContent(t)
	asm := newAssembler(nil)
	tpl := &recordingRenderer{}

	for _, r := range (&RouteBuilder{Content: c}).Routes() {
		_, err := RenderRoute(context.Background(), asm, tpl, c, r)
		require.NoError(t, err, r.String())
	}
	assert.Contains(t, tpl.calls, "post:jan")
	assert.Contains(t, tpl.calls, "tag:Open Source")
	assert.Contains(t, tpl.calls, "page:convertit-privacy")
	assert.NotContains(t, tpl.calls, "post:apr-draft")
}

func TestRenderRouteUnknownKind(t *testing.T) {
	_, err := RenderRoute(context.Background(), newAssembler(nil), &recordingRenderer{}, testContent(t), site.Route{Kind: "rss"})
	assert.Error(t, err)
}

func writeSource(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestLoadContent(t *testing.T) {
	root := t.TempDir()
	blog := filepath.Join(root, "blog")
	pages := filepath.Join(root, "pages")

	writeSource(t, filepath.Join(blog, "hello.md"), `---
title: Hello
slug: hello
date: 2025-05-01
description: First post
tags: [go]
---
Hello there.
`)
	writeSource(t, filepath.Join(pages, "privacy.md"), `---
title: Privacy
slug: hy2ng-privacy
---
Nothing stored.
`)
	writeSource(t, filepath.Join(pages, "blog.md"), `---
title: Clash
slug: blog
---
Shadowing the blog.
`)

	c, err := LoadContent(config.BlogConfig{ContentDir: blog, PagesDir: pages})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Catalog.Len())

	_, ok := c.Page("hy2ng-privacy")
	assert.True(t, ok)
	_, ok = c.Page("blog")
	assert.False(t, ok)
	require.Len(t, c.Warnings, 1)
	assert.Contains(t, c.Warnings[0].Msg, "reserved")
}
