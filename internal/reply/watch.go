package reply

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ReloadFunc receives every successfully reloaded catalog.
type ReloadFunc func(c *Catalog, digest string)

// WatchCatalog watches the catalog file and calls onReload after each change
// that yields a valid catalog with new contents. The parent directory is
// watched so that editors replacing the file are picked up. digest is the
// digest of the catalog currently in use. It blocks until ctx is cancelled.
func WatchCatalog(ctx context.Context, path, digest string, logger *slog.Logger, onReload ReloadFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("catalog watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-timerCh:
			timerCh = nil
			c, next, loadErr := LoadCatalog(abs)
			if loadErr != nil {
				logger.Warn("catalog watcher: keeping previous catalog", slog.String("error", loadErr.Error()))
				continue
			}
			if next == digest {
				logger.Debug("catalog watcher: contents unchanged", slog.String("path", abs))
				continue
			}
			digest = next
			logger.Info("catalog watcher: reloaded", slog.String("path", abs), slog.String("digest", digest))
			if onReload != nil {
				onReload(c, digest)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerCh = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
