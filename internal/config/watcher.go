package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/s00500/env_logger"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the file at path after every change and passes the result to
// onChange. The directory is watched rather than the file so editors that
// replace the file on save are followed. Files that fail to load are logged
// and skipped. Watch returns once the watch is in place; ctx stops it.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	log.Debugf("Watching %s for changes", path)

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(debounce)
				timerC = timer.C
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("Config watcher: %v", err)
			case <-timerC:
				timerC = nil
				conf, err := Load(path)
				if err != nil {
					log.Errorf("Ignoring changed config: %v", err)
					continue
				}
				onChange(conf)
			}
		}
	}()
	return nil
}
