package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bytesite/internal/build"
)

func newBuildCmd(g *globalFlags) *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Write the static site",
		Long: `Render every route into the public directory. Drafts are never written.
Nothing is rewritten when content, theme, config and repositories are
unchanged since the last build, unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			if f.out != "" {
				e.cfg.Build.PublicDir = f.out
			}

			store := e.openCache()
			defer closeCache(store, e.logger)

			start := time.Now()
			b := &build.Builder{
				Cfg:    e.cfg,
				Cache:  store,
				Repos:  e.repoSource(store, nil),
				Logger: e.logger,
				Force:  f.force,
			}
			res, err := b.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			for _, w := range res.Warnings {
				e.logger.Warn("content warning", zap.String("path", w.Path), zap.String("msg", w.Msg))
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "%s is up to date\n", e.cfg.Build.PublicDir)
				return nil
			}
			fmt.Fprintf(out, "wrote %d files (%d articles, %d pages), pruned %d, in %s\n",
				res.Written, res.Articles, res.Pages, res.Pruned, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}
