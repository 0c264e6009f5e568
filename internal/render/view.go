package render

import (
	"html/template"
	"time"

	"bytesite/internal/domain/config"
	"bytesite/internal/domain/content"
	"bytesite/internal/stats"
)

type Heading struct {
	Level int
	ID    string
	Text  string
}

// Chrome is shared by every page.
type Chrome struct {
	Site      config.SiteConfig
	PageTitle string
	// Description overrides Site.Description in meta tags.
	Description string
	// Canonical is the absolute URL of the page, when the site URL is known.
	Canonical string
	NoIndex   bool
	// LiveReload enables the dev-server reload script.
	LiveReload bool
	Generated  time.Time
}

type PostSummary struct {
	Meta       content.ArticleMeta
	URL        string
	Stats      stats.Stats
	WordsLabel string
}

type PostPage struct {
	Chrome
	Post    PostSummary
	HTML    template.HTML
	TOC     []Heading
	IsDraft bool
}

type BlogPage struct {
	Chrome
	Posts []PostSummary
	Tags  []string
}

type TagPage struct {
	Chrome
	Tag   string
	Posts []PostSummary
}

type TagStat struct {
	Name  string
	Count int
	URL   string
}

type TagsPage struct {
	Chrome
	Tags  []TagStat
	Total int
}

type RepoCard struct {
	Name        string
	Description string
	// FullDescription is set when Description was shortened.
	FullDescription string
	URL             string
	Language        string
	Stars           int
	Forks           int
	Watchers        int
	Updated         time.Time
	Topics          []string
	MoreTopics      int
	LongSummary     bool
}

// RepoSection is the GitHub block of the home page. Err is set when the last
// fetch failed; Repos may still hold older cached data.
type RepoSection struct {
	Enabled      bool
	Featured     []RepoCard
	More         []RepoCard
	TotalStars   int
	Contributors int
	Err          string
	Stale        bool
}

type HomePage struct {
	Chrome
	Recent []PostSummary
	Repos  RepoSection
}

type StaticPage struct {
	Chrome
	Page content.Page
	HTML template.HTML
	TOC  []Heading
}

type NotFoundPage struct {
	Chrome
	Path string
}
