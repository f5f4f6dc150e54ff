package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	m "vbuild.dev/pkg/vbuild/internal/model"
)

const defaultWatchDebounce = 500 * time.Millisecond

// watchDirectory calls onChange after every burst of filesystem events
// below dir until ctx is cancelled. Bursts shorter than debounce collapse
// into one call.
func watchDirectory(ctx context.Context, dir m.Path, debounce time.Duration, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	if _, err := os.Stat(dir.String()); err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}

	addDirsRecursive(watcher, dir.String())
	slog.Info("Watching directory", "dir", dir, "debounce", debounce)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					addDirsRecursive(watcher, ev.Name)
				}
			}

			slog.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("Watcher error", "error", err)
		case <-timer.C:
			if err := onChange(); err != nil {
				return err
			}
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", "dir", path, "error", err)
			}
		}

		return nil
	})
}
