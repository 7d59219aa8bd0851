package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chazu/isr/pkg/logging"
	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of events an editor emits for one save.
const settleDelay = 50 * time.Millisecond

// watchFile calls onChange each time path is written or replaced, until
// ctx is done. The parent directory is watched rather than the file so
// that editors which save by rename keep being followed.
func watchFile(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	logging.Logger().Info("watching", "path", abs)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle = time.After(settleDelay)

		case <-settle:
			settle = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Logger().Warn("watch error", "error", err)
		}
	}
}
