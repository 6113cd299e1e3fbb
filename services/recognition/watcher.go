// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package recognition

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/AleutianMirror/pkg/logging"
)

// RulesWatcher reloads an external rules file when it changes on disk.
//
// # Description
//
// Watches the directory containing the rules file and batches events with
// a debounce window, so editors that write in several steps (or via a
// rename of a temp file) trigger a single reload. A reload that fails to
// parse or compile keeps the previously loaded rule set.
//
// # Thread Safety
//
// Safe for concurrent use. Reloads happen from a single goroutine.
type RulesWatcher struct {
	path     string
	target   *RulesRecognizer
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	debounce time.Duration

	// Channels for communication
	changes  chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// defaultRulesDebounce is how long to wait for further writes before
// reloading.
const defaultRulesDebounce = 100 * time.Millisecond

// NewRulesWatcher creates a watcher that reloads target from path on change.
//
// The directory containing path is watched rather than the file itself,
// because editors commonly replace files by rename, which would otherwise
// orphan the watch.
func NewRulesWatcher(path string, target *RulesRecognizer, logger *logging.Logger) (*RulesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &RulesWatcher{
		path:     path,
		target:   target,
		watcher:  watcher,
		logger:   logger,
		debounce: defaultRulesDebounce,
		changes:  make(chan struct{}, 16),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for rule file changes.
//
// Spawns two goroutines, an event filter and a debouncer. Both exit when
// Stop is called or the context is canceled.
func (w *RulesWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil // Already watching
	}
	w.watching = true
	w.mu.Unlock()

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher.
func (w *RulesWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true if the watcher is currently active.
func (w *RulesWatcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// processEvents filters fsnotify events down to changes of the rules file.
func (w *RulesWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Send to debounce channel (non-blocking)
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rules watcher error", "path", w.path, "error", err)
		}
	}
}

// debounceLoop coalesces change notifications and reloads after the
// debounce window expires.
func (w *RulesWatcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.changes:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()
		}
	}
}

// reload swaps in the rules file, keeping the previous set on failure.
func (w *RulesWatcher) reload() {
	if err := w.target.Reload(w.path); err != nil {
		w.logger.Warn("rules reload failed, keeping previous rules",
			"path", w.path,
			"error", err)
		return
	}
	w.logger.Info("rules reloaded",
		"path", w.path,
		"patterns", w.target.RuleCount())
}
