package codebuddy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// catalogDebounce coalesces the burst of events editors emit on save.
const catalogDebounce = 250 * time.Millisecond

// WatchCatalog reloads Config.CatalogPath whenever it changes, until ctx is
// cancelled. The parent directory is watched so that editors which replace
// the file by renaming are handled.
func (a *App) WatchCatalog(ctx context.Context) error {
	if a.Config.CatalogPath == "" {
		return errors.New("codebuddy: no catalog path to watch")
	}
	path, err := filepath.Abs(a.Config.CatalogPath)
	if err != nil {
		return fmt.Errorf("codebuddy: catalog path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("codebuddy: watch catalog: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("codebuddy: watch catalog: %w", err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(catalogDebounce)
			} else {
				timer.Reset(catalogDebounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.Logger.Warn("catalog watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			if err := a.ReloadCatalog(ctx); err != nil {
				a.Logger.Error("catalog reload failed", zap.Error(err))
			}
		}
	}
}
