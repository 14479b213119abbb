package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/utils/errutil"
)

// Watcher calls reload after the watched file settles
type Watcher struct {
	path     string
	debounce time.Duration
	reload   func(ctx context.Context) error
}

// NewWatcher creates a Watcher for path
func NewWatcher(path string, debounce time.Duration, reload func(ctx context.Context) error) *Watcher {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		reload:   reload,
	}
}

// Run watches until ctx is cancelled. The directory is watched instead of
// the file because editors replace files by rename.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return goerr.Wrap(err, "failed to resolve watched path", goerr.V("path", w.path))
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create file watcher")
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		return goerr.Wrap(err, "failed to watch directory", goerr.V("dir", filepath.Dir(absPath)))
	}
	logger.Info("Watching project file", "path", absPath)

	name := filepath.Base(absPath)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Project file changed", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.reload(ctx); err != nil {
				errutil.Handle(ctx, "Failed to reload project file", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", "error", err)
		}
	}
}
