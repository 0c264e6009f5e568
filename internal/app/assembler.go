package app

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"bytesite/internal/domain/config"
	"bytesite/internal/domain/content"
	"bytesite/internal/github"
	"bytesite/internal/render"
	"bytesite/internal/stats"
)

const (
	repoDescriptionLimit = 100
	repoTopicLimit       = 3
)

// RepoSource supplies the GitHub block of the home page.
type RepoSource interface {
	Snapshot(ctx context.Context) github.Snapshot
}

// Assembler turns a content snapshot into page view models. Build and serve
// share it so both produce the same pages.
type Assembler struct {
	cfg        config.Config
	md         *render.MarkdownRenderer
	stats      stats.Config
	repos      RepoSource
	liveReload bool
	now        func() time.Time
}

type AssemblerOptions struct {
	// Repos may be nil when the GitHub section is disabled.
	Repos      RepoSource
	LiveReload bool
	Now        func() time.Time
}

func NewAssembler(cfg config.Config, opt AssemblerOptions) *Assembler {
	now := opt.Now
	if now == nil {
		now = time.Now
	}
	return &Assembler{
		cfg:        cfg,
		md:         NewMarkdown(cfg.Blog),
		stats:      stats.Config{WordsPerMinute: cfg.Blog.WordsPerMinute},
		repos:      opt.Repos,
		liveReload: opt.LiveReload,
		now:        now,
	}
}

// NewMarkdown builds the Markdown renderer with configured class overrides
// on top of the default theme.
func NewMarkdown(cfg config.BlogConfig) *render.MarkdownRenderer {
	theme := render.DefaultTheme().Merge(render.ThemeFromClasses(cfg.Classes))
	return render.NewMarkdownRenderer(theme)
}

func (a *Assembler) chrome(title, path string) render.Chrome {
	return render.Chrome{
		Site:       a.cfg.Site,
		PageTitle:  title,
		Canonical:  a.cfg.Site.AbsURL(path),
		LiveReload: a.liveReload,
		Generated:  a.now(),
	}
}

func (a *Assembler) Summary(art content.Article) render.PostSummary {
	st := a.stats.Compute(art.Body.Raw)
	return render.PostSummary{
		Meta:       art.Meta,
		URL:        art.URL(),
		Stats:      st,
		WordsLabel: stats.FormatWords(st.WordCount, a.cfg.Site.LanguageTag()),
	}
}

func (a *Assembler) summaries(arts []content.Article) []render.PostSummary {
	out := make([]render.PostSummary, 0, len(arts))
	for _, art := range arts {
		out = append(out, a.Summary(art))
	}
	return out
}

func (a *Assembler) Home(ctx context.Context, c *Content) render.HomePage {
	return render.HomePage{
		Chrome: a.chrome("Home", "/"),
		Recent: a.summaries(c.Catalog.ListRecent(a.cfg.Blog.RecentCount)),
		Repos:  a.repoSection(ctx),
	}
}

func (a *Assembler) Blog(c *Content) render.BlogPage {
	return render.BlogPage{
		Chrome: a.chrome("Blog", "/blog"),
		Posts:  a.summaries(c.Catalog.ListPublished()),
		Tags:   c.Catalog.ListAllTags(),
	}
}

// Post resolves any article by slug. Unpublished articles come back marked
// as drafts and excluded from indexing.
func (a *Assembler) Post(c *Content, slug string) (render.PostPage, bool, error) {
	art, ok := c.Catalog.FindBySlug(slug)
	if !ok {
		return render.PostPage{}, false, nil
	}
	res, err := a.md.RenderString(art.Body.Raw)
	if err != nil {
		return render.PostPage{}, true, fmt.Errorf("render markdown of %s: %w", slug, err)
	}

	ch := a.chrome(art.Meta.Title, art.URL())
	ch.Description = art.Meta.Description
	ch.NoIndex = !art.Meta.Published
	return render.PostPage{
		Chrome:  ch,
		Post:    a.Summary(art),
		HTML:    template.HTML(res.HTML),
		TOC:     res.Headings,
		IsDraft: !art.Meta.Published,
	}, true, nil
}

// Tag reports false when no published article carries tag.
func (a *Assembler) Tag(c *Content, tag string) (render.TagPage, bool) {
	arts := c.Catalog.ListByTag(tag)
	if len(arts) == 0 {
		return render.TagPage{}, false
	}
	return render.TagPage{
		Chrome: a.chrome("Tag: "+tag, render.TagURL(tag)),
		Tag:    tag,
		Posts:  a.summaries(arts),
	}, true
}

func (a *Assembler) Tags(c *Content) render.TagsPage {
	counts := c.Catalog.TagCounts()
	tags := make([]render.TagStat, 0, len(counts))
	for _, tc := range counts {
		tags = append(tags, render.TagStat{
			Name:  tc.Name,
			Count: tc.Count,
			URL:   render.TagURL(tc.Name),
		})
	}
	return render.TagsPage{
		Chrome: a.chrome("Tags", "/blog/tags"),
		Tags:   tags,
		Total:  len(tags),
	}
}

func (a *Assembler) Page(c *Content, slug string) (render.StaticPage, bool, error) {
	p, ok := c.Page(slug)
	if !ok {
		return render.StaticPage{}, false, nil
	}
	res, err := a.md.RenderString(p.Body.Raw)
	if err != nil {
		return render.StaticPage{}, true, fmt.Errorf("render markdown of page %s: %w", slug, err)
	}
	ch := a.chrome(p.Title, p.URL())
	ch.Description = p.Subtitle
	return render.StaticPage{
		Chrome: ch,
		Page:   p,
		HTML:   template.HTML(res.HTML),
		TOC:    res.Headings,
	}, true, nil
}

func (a *Assembler) NotFound(path string) render.NotFoundPage {
	ch := a.chrome("Not found", "")
	ch.Canonical = ""
	ch.NoIndex = true
	return render.NotFoundPage{Chrome: ch, Path: path}
}

func (a *Assembler) repoSection(ctx context.Context) render.RepoSection {
	if a.repos == nil || !a.cfg.GitHub.Enabled() {
		return render.RepoSection{}
	}
	snap := a.repos.Snapshot(ctx)

	sec := render.RepoSection{
		Enabled:      true,
		TotalStars:   snap.Stats.TotalStars,
		Contributors: snap.Stats.Contributors,
		Stale:        snap.Stale,
	}
	if snap.Err != nil {
		sec.Err = "Could not load repositories from GitHub."
	}

	featured := a.cfg.GitHub.Featured
	if featured <= 0 {
		featured = 3
	}
	for i, r := range snap.Repos {
		card := RepoCard(r)
		if i < featured {
			sec.Featured = append(sec.Featured, card)
		} else {
			sec.More = append(sec.More, card)
		}
	}
	return sec
}

// RepoCard shortens long descriptions and keeps the first three topics.
func RepoCard(r github.Repo) render.RepoCard {
	desc := strings.TrimSpace(r.Description)
	full := ""
	if runes := []rune(desc); len(runes) > repoDescriptionLimit {
		full = desc
		desc = strings.TrimSpace(string(runes[:repoDescriptionLimit])) + "..."
	}
	topics := r.Topics
	more := 0
	if len(topics) > repoTopicLimit {
		more = len(topics) - repoTopicLimit
		topics = topics[:repoTopicLimit:repoTopicLimit]
	}
	return render.RepoCard{
		Name:            r.Name,
		Description:     desc,
		FullDescription: full,
		URL:             r.HTMLURL,
		Language:        r.Language,
		Stars:           r.Stars,
		Forks:           r.Forks,
		Watchers:        r.Watchers,
		Updated:         r.UpdatedAt,
		Topics:          topics,
		MoreTopics:      more,
		LongSummary:     full != "",
	}
}
