package plugins

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/CloudEngineHub/headlamp/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// Watcher notices changes below a plugins dir and calls reload at most once per tick.
type Watcher struct {
	dir     string
	ticker  utils.Ticker
	reload  func(ctx context.Context)
	watcher *fsnotify.Watcher
	changed atomic.Bool
}

// NewWatcher watches dir, creating it when missing. schedule is a duration or a cron expression.
func NewWatcher(dir, schedule string, reload func(ctx context.Context)) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plugins dir: %w", err)
	}
	ticker, err := utils.NewTicker(schedule)
	if err != nil {
		return nil, fmt.Errorf("create plugins ticker: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		ticker.Stop()
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	w := &Watcher{dir: dir, ticker: ticker, reload: reload, watcher: fw}
	if err := w.watchTree(); err != nil {
		w.close()
		return nil, err
	}
	return w, nil
}

// fsnotify does not watch sub folders, so every folder is added.
func (w *Watcher) watchTree() error {
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer w.close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			logger.L().Ctx(ctx).Debug("plugin change", helpers.String("event", event.String()))
			w.changed.Store(true)
			if event.Has(fsnotify.Create) {
				if err := w.watchTree(); err != nil {
					logger.L().Ctx(ctx).Warning("cannot watch new plugin folder", helpers.Error(err))
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.L().Ctx(ctx).Warning("plugin watcher error", helpers.Error(err))
		case <-w.ticker.Chan():
			if w.changed.Swap(false) {
				logger.L().Ctx(ctx).Info("plugins changed, reloading", helpers.String("dir", w.dir))
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) close() {
	w.ticker.Stop()
	_ = w.watcher.Close()
}
