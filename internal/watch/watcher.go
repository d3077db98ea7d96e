package watch

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/petersawicki/seo-log-analyzer/internal/analyzer"
)

// Logger defines the logging interface needed by the watcher.
type Logger interface {
	Infof(string, ...any)
	Errorf(string, ...any)
}

// RebuildFunc re-parses the watched log and returns a fresh engine.
type RebuildFunc func() (*analyzer.Engine, error)

// WatchFile watches an access-log file for changes and rebuilds the
// analysis into the Store. On rebuild failure the previous engine is kept.
// Returns a stop function to cleanly shut down the watcher, or an error if
// setup fails.
func WatchFile(path string, store *Store, rebuild RebuildFunc, logger Logger) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch file: %w", err)
	}

	done := make(chan struct{})

	go func() {
		defer watcher.Close()

		var lastEvent time.Time
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Debounce rapid successive events.
				now := time.Now()
				if now.Sub(lastEvent) < 500*time.Millisecond {
					continue
				}
				lastEvent = now

				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					logger.Infof("access log change detected: %s", ev.Name)
					engine, err := rebuild()
					if err != nil {
						logger.Errorf("failed to rebuild analysis: %v", err)
						continue
					}
					store.Update(engine)
					logger.Infof("analysis rebuilt (%d records, %d bot records)",
						engine.TotalRecords(), engine.BotRecords())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Errorf("watcher error: %v", err)
			}
		}
	}()

	return func() { close(done) }, nil
}
