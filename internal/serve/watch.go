package serve

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the site when content or theme files change. It blocks
// until ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	roots := []string{s.cfg.Blog.ContentDir, s.cfg.Blog.PagesDir, filepath.Join(s.cfg.Build.ThemeDir, s.cfg.Site.Theme)}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if err := addTree(w, root); err != nil {
			return err
		}
	}

	debounce := s.cfg.Server.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	s.logger.Info("watching for changes", zap.Strings("roots", roots), zap.Duration("debounce", debounce))
	s.watchLoop(ctx, w, debounce)
	return nil
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func (s *Server) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						s.logger.Warn("watch new directory", zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if err := s.Reload(); err != nil {
				s.logger.Error("reload failed, keeping previous content", zap.Error(err))
			}
		}
	}
}
