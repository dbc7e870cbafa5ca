package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/parsisolution/autocomplete/internal/logger"
)

// settle absorbs the burst of events editors emit for a single save.
const settle = 100 * time.Millisecond

// Watch reloads configPath whenever it changes and hands every config that
// loads and validates to onChange. Broken edits are logged and skipped.
// It blocks until ctx is done.
func Watch(ctx context.Context, configPath string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	log := logger.New(logger.Watch)

	// editors often replace the file, so watch the directory instead
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Debugf("Watching config: %s", configPath)

	target := filepath.Clean(configPath)
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			pending = time.After(settle)
		case <-pending:
			pending = nil
			config, err := LoadConfig(configPath)
			if err != nil {
				log.Warnf("Ignoring config change in %s: %v", configPath, err)
				continue
			}
			log.Debugf("Config reloaded: %d triggers", len(config.Triggers))
			onChange(config)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Config watcher error: %v", err)
		}
	}
}
