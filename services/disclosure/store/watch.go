// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import "sync"

// watchHub fans session change notifications out to subscribers.
//
// Channels have capacity one and sends never block: a watcher that has a
// tick pending simply coalesces further ticks into it. Watchers poll fresh
// state after each tick, so missed intermediate ticks lose nothing.
type watchHub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan struct{}
	next int
}

func newWatchHub() *watchHub {
	return &watchHub{subs: make(map[string]map[int]chan struct{})}
}

// subscribe registers a watcher for the session id. The cancel func is
// idempotent and closes the channel.
func (h *watchHub) subscribe(id string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[int]chan struct{})
	}
	key := h.next
	h.next++
	h.subs[id][key] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[id], key)
			if len(h.subs[id]) == 0 {
				delete(h.subs, id)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// notify ticks every subscriber of the session. Non-blocking.
func (h *watchHub) notify(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
