package www

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchSnapshot tells connected dashboards when the optimizer rewrote
// the schedule file. The optimizer replaces the file with a rename, so
// the watcher has to watch the directory, not the file itself.
func watchSnapshot(logger *slog.Logger, hub *Hub, snapshotPath string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(snapshotPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(snapshotPath)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("schedule snapshot changed", slog.String("op", event.Op.String()))
				hub.BroadcastEvent("schedule_updated")

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("snapshot watcher error", slog.Any("error", err))
			}
		}
	}()

	return watcher, nil
}
