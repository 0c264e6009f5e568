package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bytesite/internal/app"
	"bytesite/internal/cache"
	"bytesite/internal/domain/config"
	"bytesite/internal/github"
	"bytesite/internal/logging"
	"bytesite/internal/metrics"
)

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "bytesite",
		Short: "Build and serve The Byte Array site and blog",
		Long: `bytesite renders the company site: the home page with the latest posts and
GitHub projects, the blog with tag listings, and the static pages.

  bytesite serve                  Serve the site and reload on changes
  bytesite build                  Write the static site to the public dir`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(g), newBuildCmd(g))
	return cmd
}

// env is what every subcommand needs: validated config and a logger.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

func loadEnv(g *globalFlags) (*env, error) {
	var (
		cfg config.Config
		err error
	)
	// An explicit --config has to exist; the default location may not.
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadOrDefault(config.Path(""))
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// openCache opens the response cache. A locked or unreadable cache is not
// fatal; the caller runs uncached.
func (e *env) openCache() *cache.Store {
	store, err := cache.Open(cache.OpenOptions{Path: e.cfg.Build.CachePath})
	if err != nil {
		e.logger.Warn("cache unavailable, continuing without it",
			zap.String("path", e.cfg.Build.CachePath), zap.Error(err))
		return nil
	}
	return store
}

// repoSource is nil when no GitHub organisation is configured.
func (e *env) repoSource(store *cache.Store, m *metrics.Metrics) app.RepoSource {
	if !e.cfg.GitHub.Enabled() {
		return nil
	}
	client := github.NewClient(e.cfg.GitHub, e.logger.Named("github"))
	return github.NewService(client, github.ServiceOptions{
		Org:     e.cfg.GitHub.Org,
		Cache:   store,
		TTL:     e.cfg.GitHub.CacheTTL,
		Logger:  e.logger.Named("github"),
		Metrics: m,
	})
}

func closeCache(store *cache.Store, logger *zap.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("close cache", zap.Error(err))
	}
}
