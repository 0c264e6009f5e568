package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bytesite/internal/metrics"
	"bytesite/internal/serve"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Serve the site",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			addr := e.cfg.Server.Addr
			if f.addr != "" {
				addr = f.addr
			}
			watch := e.cfg.Server.Watch
			if cmd.Flags().Changed("watch") {
				watch = f.watch
			}

			store := e.openCache()
			defer closeCache(store, e.logger)

			var m *metrics.Metrics
			if e.cfg.Server.Metrics {
				m = metrics.New("bytesite")
			}

			s, err := serve.New(e.cfg, serve.Options{
				Repos:      e.repoSource(store, m),
				Logger:     e.logger,
				LiveReload: watch,
				Metrics:    m,
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if watch {
				go func() {
					if err := s.Watch(ctx); err != nil {
						e.logger.Error("watcher stopped", zap.Error(err))
					}
				}()
			}
			return s.ListenAndServe(ctx, addr)
		},
	}
	f.register(cmd.Flags())
	return cmd
}
