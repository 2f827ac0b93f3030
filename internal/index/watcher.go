package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Shawm69/fbigposter/internal/storage"
)

// DocCallback is called when an operator edits a governed document on
// disk. name is the workspace-relative path of the changed file.
type DocCallback func(name string)

// Watch starts an fsnotify watcher on the workspace root and keeps the
// index in sync with external rewrites of the post log until ctx is
// cancelled. Operator edits to the constitution or identity documents
// invoke cb (if non-nil).
//
// Post-log changes are debounced: a scraper rewriting the log produces a
// burst of write events, and one resync at the end covers all of them.
func Watch(ctx context.Context, db PostIndex, store storage.Provider, workspaceRoot string, logger *slog.Logger, cb DocCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(workspaceRoot); err != nil {
		return err
	}
	// The history dir may not exist until the first post is recorded.
	historyDir := filepath.Join(workspaceRoot, filepath.Dir(storage.PostLogPath))
	_ = w.Add(historyDir)

	logger.Info("watcher: started", slog.String("root", workspaceRoot))

	var resyncTimer *time.Timer
	var resyncCh <-chan time.Time

	scheduleResync := func() {
		if resyncTimer == nil {
			resyncTimer = time.NewTimer(200 * time.Millisecond)
			resyncCh = resyncTimer.C
		} else {
			resyncTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if resyncTimer != nil {
				resyncTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-resyncCh:
			if err := Sync(db, store, logger); err != nil {
				logger.Warn("watcher: resync failed", slog.String("error", err.Error()))
			} else {
				logger.Debug("watcher: post log resynced")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			rel, relErr := filepath.Rel(workspaceRoot, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch rel {
			case storage.PostLogPath:
				scheduleResync()
			case storage.ConstitutionPath, storage.SoulPath:
				logger.Info("watcher: document changed", slog.String("path", rel))
				if cb != nil {
					cb(rel)
				}
			case filepath.ToSlash(filepath.Dir(storage.PostLogPath)):
				// History dir created after startup; start watching it.
				if ev.Op&fsnotify.Create != 0 {
					_ = w.Add(ev.Name)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
