package ingest

import (
	"errors"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"bytesite/internal/domain/content"
	domainerr "bytesite/internal/domain/errors"
)

type Warning struct {
	Path string
	Msg  string
}

type result[T any] struct {
	Path  string
	Item  T
	Warns []Warning
	Skip  bool
	Err   error
}

// Ingest loads every article under sourceDir. Files with broken or
// incomplete front matter are skipped with a warning; a later file reusing a
// slug (in path order) is skipped too, so the returned slugs are unique.
func Ingest(sourceDir string) ([]content.Article, []Warning, error) {
	files, err := DiscoverSource(sourceDir)
	if err != nil {
		return nil, nil, err
	}

	results, err := run(files, loadArticle)
	if err != nil {
		return nil, nil, err
	}

	var warns []Warning
	seen := make(map[string]struct{}, len(results))
	out := make([]content.Article, 0, len(results))
	for _, r := range results {
		warns = append(warns, r.Warns...)
		if r.Skip {
			continue
		}
		slug := r.Item.Meta.Slug
		if _, ok := seen[slug]; ok {
			warns = append(warns, Warning{Path: r.Path, Msg: "duplicate slug, skipped: " + slug})
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, r.Item)
	}
	return out, warns, nil
}

// IngestPages loads standalone pages. Page slugs fall back to the title and
// then the file name.
func IngestPages(dir string) ([]content.Page, []Warning, error) {
	files, err := DiscoverSource(dir)
	if err != nil {
		return nil, nil, err
	}

	results, err := run(files, loadPage)
	if err != nil {
		return nil, nil, err
	}

	var warns []Warning
	seen := make(map[string]struct{}, len(results))
	out := make([]content.Page, 0, len(results))
	for _, r := range results {
		warns = append(warns, r.Warns...)
		if r.Skip {
			continue
		}
		if _, ok := seen[r.Item.Slug]; ok {
			warns = append(warns, Warning{Path: r.Path, Msg: "duplicate page slug, skipped: " + r.Item.Slug})
			continue
		}
		seen[r.Item.Slug] = struct{}{}
		out = append(out, r.Item)
	}
	return out, warns, nil
}

// run fans files out to GOMAXPROCS workers and returns the results in input
// order.
func run[T any](files []SourceFile, load func(path string, raw []byte) result[T]) ([]result[T], error) {
	workers := runtime.GOMAXPROCS(0)
	type job struct {
		idx int
		sf  SourceFile
	}
	jobs := make(chan job)
	results := make([]result[T], len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				raw, err := os.ReadFile(j.sf.Path)
				if err != nil {
					results[j.idx] = result[T]{Path: j.sf.Path, Err: err}
					continue
				}
				r := load(j.sf.Path, raw)
				r.Path = j.sf.Path
				results[j.idx] = r
			}
		}()
	}

	for i, f := range files {
		jobs <- job{idx: i, sf: f}
	}
	close(jobs)
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
	}
	return results, nil
}

func loadArticle(path string, raw []byte) result[content.Article] {
	fm, body, err := ParseFrontMatter(raw)
	if err != nil {
		return result[content.Article]{
			Warns: []Warning{{Path: path, Msg: "failed to parse front matter: " + err.Error()}},
			Skip:  true,
		}
	}
	if err := fm.Validate(); err != nil {
		return result[content.Article]{
			Warns: []Warning{{Path: path, Msg: describeInvalid(err)}},
			Skip:  true,
		}
	}

	meta := content.ArticleMeta{
		Title:       fm.Title,
		Slug:        fm.Slug,
		Date:        ParseTime(fm.Date),
		Description: fm.Description,
		Tags:        fm.Tags,
		Published:   fm.IsPublished(),
	}
	meta.Normalize()

	var warns []Warning
	if !content.IsPathSegment(meta.Slug) || strings.ContainsAny(meta.Slug, " \t") {
		warns = append(warns, Warning{Path: path, Msg: "slug is not a single URL path segment: " + meta.Slug})
		return result[content.Article]{Warns: warns, Skip: true}
	}
	if len(meta.Tags) < len(fm.Tags) {
		warns = append(warns, Warning{Path: path, Msg: "dropped empty or repeated tags"})
	}

	return result[content.Article]{
		Item: content.Article{
			Meta: meta,
			Body: content.Body{
				Raw:         string(body),
				SourcePath:  path,
				ContentHash: HashBytes(raw),
			},
		},
		Warns: warns,
	}
}

func loadPage(path string, raw []byte) result[content.Page] {
	fm, body, err := ParsePageFrontMatter(raw)
	if err != nil {
		return result[content.Page]{
			Warns: []Warning{{Path: path, Msg: "failed to parse front matter: " + err.Error()}},
			Skip:  true,
		}
	}
	if err := fm.Validate(); err != nil {
		return result[content.Page]{
			Warns: []Warning{{Path: path, Msg: describeInvalid(err)}},
			Skip:  true,
		}
	}
	slug := ResolveSlug(fm.Slug, fm.Title, path)
	if slug == "" {
		return result[content.Page]{Warns: []Warning{{Path: path, Msg: "empty slug"}}, Skip: true}
	}

	return result[content.Page]{
		Item: content.Page{
			Title:    strings.TrimSpace(fm.Title),
			Slug:     slug,
			Subtitle: strings.TrimSpace(fm.Subtitle),
			Updated:  ParseTime(fm.Updated),
			Body: content.Body{
				Raw:         string(body),
				SourcePath:  path,
				ContentHash: HashBytes(raw),
			},
		},
	}
}

func describeInvalid(err error) string {
	var ve domainerr.ValidationError
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve.Items))
		for _, it := range ve.Items {
			msgs = append(msgs, it.Error())
		}
		slices.Sort(msgs)
		return "invalid front matter: " + strings.Join(msgs, "; ")
	}
	return "invalid front matter: " + err.Error()
}
