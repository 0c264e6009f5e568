package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"bytesite/internal/app"
	"bytesite/internal/cache"
	domainbuild "bytesite/internal/domain/build"
	"bytesite/internal/domain/config"
	"bytesite/internal/github"
	"bytesite/internal/ingest"
	"bytesite/internal/render"
)

type Builder struct {
	Cfg config.Config
	// Cache records the last build fingerprint and the files it wrote.
	// Without it every run rebuilds and nothing is pruned.
	Cache  *cache.Store
	Repos  app.RepoSource
	Logger *zap.Logger
	Force  bool
}

type Result struct {
	Articles int
	Pages    int
	Written  int
	Pruned   int
	Skipped  bool
	Warnings []ingest.Warning
}

// staticRepos pins one snapshot so the fingerprint and the home page agree.
type staticRepos github.Snapshot

func (s staticRepos) Snapshot(context.Context) github.Snapshot {
	return github.Snapshot(s)
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func (b *Builder) Run(ctx context.Context) (*Result, error) {
	log := b.logger()

	c, err := app.LoadContent(b.Cfg.Blog)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Articles: c.Catalog.Len(),
		Pages:    len(c.Pages),
		Warnings: c.Warnings,
	}

	themeDir := b.Cfg.Build.ThemeDir
	themeName := b.Cfg.Site.Theme
	tpl, err := render.NewTemplateRenderer(themeDir, themeName)
	if err != nil {
		return nil, fmt.Errorf("load theme %s: %w", filepath.Join(themeDir, themeName), err)
	}

	var repos app.RepoSource
	var snap github.Snapshot
	if b.Repos != nil && b.Cfg.GitHub.Enabled() {
		snap = b.Repos.Snapshot(ctx)
		if snap.Err != nil {
			log.Warn("github data unavailable", zap.Error(snap.Err), zap.Bool("stale", snap.Stale))
		}
		repos = staticRepos(snap)
	}

	outDir := b.Cfg.Build.PublicDir
	fp, err := b.fingerprint(c, snap)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	if !b.Force && b.upToDate(outDir, fp) {
		log.Info("build up to date", zap.String("out", outDir))
		res.Skipped = true
		return res, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir public: %w", err)
	}

	asm := app.NewAssembler(b.Cfg, app.AssemblerOptions{
		Repos: repos,
		Now:   func() time.Time { return b.Cfg.Build.Now },
	})
	rb := &app.RouteBuilder{Content: c}

	written := make(map[string]struct{})
	for _, r := range rb.Routes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		htmlBytes, err := app.RenderRoute(ctx, asm, tpl, c, r)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", r, err)
		}
		if err := writeFile(outDir, r.OutPath, htmlBytes); err != nil {
			return nil, err
		}
		written[filepath.Clean(r.OutPath)] = struct{}{}
		log.Debug("wrote page", zap.String("route", r.String()))
	}
	res.Written = len(written)

	if err := b.copyStaticAssets(outDir, written); err != nil {
		return nil, fmt.Errorf("copy static assets: %w", err)
	}
	if b.Cache == nil {
		return res, nil
	}

	key := fingerprintKey(outDir)
	prev, err := b.Cache.Manifest(key)
	if err != nil {
		log.Warn("read build manifest", zap.Error(err))
	}
	pruned, err := pruneStale(outDir, prev, written)
	if err != nil {
		return nil, fmt.Errorf("prune stale pages: %w", err)
	}
	res.Pruned = pruned

	if err := b.Cache.RecordBuild(key, fp.Sum(), manifest(written)); err != nil {
		return nil, fmt.Errorf("record build: %w", err)
	}
	return res, nil
}

func (b *Builder) fingerprint(c *app.Content, snap github.Snapshot) (domainbuild.Fingerprint, error) {
	theme, err := domainbuild.HashTree(filepath.Join(b.Cfg.Build.ThemeDir, b.Cfg.Site.Theme))
	if err != nil {
		return domainbuild.Fingerprint{}, err
	}

	cfg := b.Cfg
	cfg.Build.Now = time.Time{}
	cfg.GitHub.Token = ""
	conf, err := domainbuild.HashValue(cfg)
	if err != nil {
		return domainbuild.Fingerprint{}, err
	}

	repos := ""
	if snap.Repos != nil {
		if repos, err = domainbuild.HashValue(snap); err != nil {
			return domainbuild.Fingerprint{}, err
		}
	}
	return domainbuild.Fingerprint{
		Articles: domainbuild.HashArticles(c.Articles),
		Pages:    domainbuild.HashPages(c.Pages),
		Theme:    theme,
		Config:   conf,
		Repos:    repos,
	}, nil
}

func (b *Builder) upToDate(outDir string, fp domainbuild.Fingerprint) bool {
	if b.Cache == nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(outDir, "index.html")); err != nil {
		return false
	}
	prev, err := b.Cache.Fingerprint(fingerprintKey(outDir))
	if err != nil {
		b.logger().Warn("read build fingerprint", zap.Error(err))
		return false
	}
	return prev == fp.Sum()
}

func fingerprintKey(outDir string) string {
	if abs, err := filepath.Abs(outDir); err == nil {
		return "build:" + abs
	}
	return "build:" + outDir
}

func writeFile(root, rel string, data []byte) error {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// pruneStale removes files the previous build recorded in prev that this
// build did not write, such as posts that were unpublished since. Files
// the builder never wrote are left alone.
func pruneStale(outDir string, prev []string, written map[string]struct{}) (int, error) {
	pruned := 0
	for _, p := range prev {
		rel := filepath.FromSlash(p)
		if !filepath.IsLocal(rel) {
			continue
		}
		if _, ok := written[filepath.Clean(rel)]; ok {
			continue
		}
		full := filepath.Join(outDir, rel)
		if err := os.Remove(full); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return pruned, err
		}
		pruned++
		removeEmptyParents(outDir, filepath.Dir(full))
	}
	return pruned, nil
}

// manifest lists written as sorted slash paths.
func manifest(written map[string]struct{}) []string {
	out := make([]string, 0, len(written))
	for rel := range written {
		out = append(out, filepath.ToSlash(rel))
	}
	slices.Sort(out)
	return out
}

func removeEmptyParents(root, dir string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

// copyStaticAssets copies the theme's static files and records them in
// written so pruning leaves them alone.
func (b *Builder) copyStaticAssets(outDir string, written map[string]struct{}) error {
	src := filepath.Join(b.Cfg.Build.ThemeDir, b.Cfg.Site.Theme, "static")
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		in, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		written[rel] = struct{}{}
		return writeFile(outDir, rel, in)
	})
}
