package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bytesite/internal/app"
	"bytesite/internal/domain/config"
	"bytesite/internal/metrics"
	"bytesite/internal/render"
)

type Server struct {
	cfg        config.Config
	logger     *zap.Logger
	asm        *app.Assembler
	liveReload bool
	metrics    *metrics.Metrics

	content atomic.Pointer[app.Content]
	tpl     atomic.Pointer[render.TemplateRenderer]
	// generation changes on every reload and is part of every ETag.
	generation atomic.Uint64

	events *hub
}

type Options struct {
	Repos  app.RepoSource
	Logger *zap.Logger
	// LiveReload injects the reload script and enables /dev/events.
	LiveReload bool
	// Metrics enables /metrics when set.
	Metrics *metrics.Metrics
}

func New(cfg config.Config, opt Options) (*Server, error) {
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		asm: app.NewAssembler(cfg, app.AssemblerOptions{
			Repos:      opt.Repos,
			LiveReload: opt.LiveReload,
		}),
		liveReload: opt.LiveReload,
		metrics:    opt.Metrics,
		events:     newHub(),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload loads content and templates and swaps them in. On failure the
// previous snapshot keeps serving.
func (s *Server) Reload() (err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			s.metrics.Reloaded(err, 0, 0)
		}
	}()

	tpl, err := render.NewTemplateRenderer(s.cfg.Build.ThemeDir, s.cfg.Site.Theme)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}
	c, err := app.LoadContent(s.cfg.Blog)
	if err != nil {
		return err
	}
	for _, w := range c.Warnings {
		s.logger.Warn("content warning", zap.String("path", w.Path), zap.String("msg", w.Msg))
	}

	s.tpl.Store(tpl)
	s.content.Store(c)
	s.generation.Add(1)
	s.metrics.Reloaded(nil, c.Catalog.Len(), len(c.Pages))

	s.logger.Info("content loaded",
		zap.Int("articles", c.Catalog.Len()),
		zap.Int("pages", len(c.Pages)),
		zap.Int("warnings", len(c.Warnings)),
		zap.Duration("took", time.Since(start)),
	)
	s.events.broadcast("reload")
	return nil
}

func (s *Server) staticDir() string {
	return filepath.Join(s.cfg.Build.ThemeDir, s.cfg.Site.Theme, "static")
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.events.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
