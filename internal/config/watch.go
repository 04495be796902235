package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

// WatchWatchlist reloads path whenever it changes and hands the new
// criteria to onChange. It runs until ctx is cancelled.
//
// The parent directory is watched so that atomic saves (write to temp
// file, rename over) and Kubernetes ConfigMap symlink swaps are seen.
// A reload that fails validation is logged and the previous criteria
// stay in force.
func WatchWatchlist(ctx context.Context, path string, log logger.Logger, onChange func(domain.Criteria)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Info("watching watchlist for changes", logger.String("path", path))

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, target) {
				continue
			}

			crit, err := LoadWatchlist(path)
			if err != nil {
				log.Error("watchlist reload failed, keeping previous watchlist",
					logger.String("path", path),
					logger.Error(err))
				continue
			}

			log.Info("watchlist reloaded",
				logger.String("path", path),
				logger.Int("departures", len(crit.Origins)),
				logger.Int("destinations", len(crit.Destinations)))
			onChange(crit)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watchlist watcher error", logger.Error(err))
		}
	}
}

func relevant(event fsnotify.Event, target string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	// ConfigMap mounts swap a "..data" symlink instead of touching the file.
	return name == target || filepath.Base(name) == "..data"
}
