// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store holds live conversation sessions in memory.
//
// All state is volatile: a restart loses every session, and that is the
// point. Nothing here touches disk, so detected personal information never
// outlives the process.
//
// Locking has two levels: an RWMutex over the session table, and one
// Mutex per session. Operations on different sessions never contend, while
// appends to the same session serialize. No store method calls out of the
// package while holding either lock.
package store

import (
	"sync"
	"time"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// Store is the in-memory session table.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	hub      *watchHub
}

// sessionState pairs a session with its private lock.
type sessionState struct {
	mu sync.Mutex
	s  *datatypes.Session
}

// New returns an empty store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*sessionState),
		hub:      newWatchHub(),
	}
}

// state returns the live state for id, creating it when create is set.
func (s *Store) state(id string, create bool) *sessionState {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok || !create {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[id]; ok {
		return st
	}
	st = &sessionState{s: datatypes.NewSession(id)}
	s.sessions[st.s.ID] = st
	return st
}

// GetOrCreate returns a copy of the session with the given id, creating it
// first if needed. An empty id gets a generated uuid.
func (s *Store) GetOrCreate(id string) *datatypes.Session {
	st := s.state(id, true)
	st.mu.Lock()
	defer st.mu.Unlock()
	return copySession(st.s)
}

// Get returns a copy of the session, or ErrSessionNotFound.
func (s *Store) Get(id string) (*datatypes.Session, error) {
	st := s.state(id, false)
	if st == nil {
		return nil, datatypes.ErrSessionNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return copySession(st.s), nil
}

// AppendMessage validates and appends one message to the session, creating
// the session if it does not exist yet.
//
// The message index is assigned under the session lock from the pre-append
// message count and stamped onto every entity, so concurrent appends to the
// same session get distinct, ordered indices. Appending also clears the
// session's explanation fingerprint: the cached explanation text survives
// for display, but the next explain call recomputes.
func (s *Store) AppendMessage(id, role, content string, entities []datatypes.Entity) (datatypes.Message, error) {
	req := datatypes.AddMessageRequest{Role: role, Content: content}
	if err := req.Validate(); err != nil {
		return datatypes.Message{}, err
	}

	stamped := make([]datatypes.Entity, len(entities))
	copy(stamped, entities)

	st := s.state(id, true)
	st.mu.Lock()
	index := len(st.s.Messages)
	for i := range stamped {
		stamped[i].MessageIndex = index
	}
	msg := datatypes.Message{
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
		Entities:  stamped,
	}
	st.s.Messages = append(st.s.Messages, msg)
	st.s.LastFingerprint = ""
	st.mu.Unlock()

	s.hub.notify(id)
	return copyMessage(msg), nil
}

// Messages returns copies of the session's messages in order. Unknown
// sessions yield an empty slice.
func (s *Store) Messages(id string) []datatypes.Message {
	st := s.state(id, false)
	if st == nil {
		return []datatypes.Message{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]datatypes.Message, 0, len(st.s.Messages))
	for _, m := range st.s.Messages {
		out = append(out, copyMessage(m))
	}
	return out
}

// AllEntities returns copies of every entity across the session's messages,
// with MessageIndex re-derived from each message's position. Unknown
// sessions yield an empty slice.
func (s *Store) AllEntities(id string) []datatypes.Entity {
	st := s.state(id, false)
	if st == nil {
		return []datatypes.Entity{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	out := []datatypes.Entity{}
	for i, m := range st.s.Messages {
		for _, e := range m.Entities {
			e.MessageIndex = i
			out = append(out, e)
		}
	}
	return out
}

// MessageCount returns the number of messages in the session, zero for
// unknown sessions.
func (s *Store) MessageCount(id string) int {
	st := s.state(id, false)
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.s.Messages)
}

// Reset deletes the session and all its accumulated state. Reports whether
// a session was actually removed; deleting an unknown session is not an
// error. Watchers are notified either way.
func (s *Store) Reset(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	s.hub.notify(id)
	return ok
}

// StoreExplanation records a generated explanation and the fingerprint it
// was computed for. Fails with ErrSessionNotFound when the session vanished
// in the meantime (reset during generation), in which case the result is
// simply not cached.
func (s *Store) StoreExplanation(id, text, fingerprint string) error {
	st := s.state(id, false)
	if st == nil {
		return datatypes.ErrSessionNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastExplanation = text
	st.s.LastFingerprint = fingerprint
	return nil
}

// CachedExplanation returns the stored explanation text and the fingerprint
// it belongs to. Both empty for unknown sessions.
func (s *Store) CachedExplanation(id string) (text, fingerprint string) {
	st := s.state(id, false)
	if st == nil {
		return "", ""
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.LastExplanation, st.s.LastFingerprint
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Subscribe registers a watcher for the session. The returned channel
// receives a tick after every append or reset; the cancel func must be
// called to release the subscription. See watchHub for delivery semantics.
func (s *Store) Subscribe(id string) (<-chan struct{}, func()) {
	return s.hub.subscribe(id)
}

func copySession(in *datatypes.Session) *datatypes.Session {
	out := &datatypes.Session{
		ID:              in.ID,
		Messages:        make([]datatypes.Message, 0, len(in.Messages)),
		CreatedAt:       in.CreatedAt,
		LastExplanation: in.LastExplanation,
		LastFingerprint: in.LastFingerprint,
	}
	for _, m := range in.Messages {
		out.Messages = append(out.Messages, copyMessage(m))
	}
	return out
}

func copyMessage(in datatypes.Message) datatypes.Message {
	out := in
	out.Entities = make([]datatypes.Entity, len(in.Entities))
	copy(out.Entities, in.Entities)
	return out
}
