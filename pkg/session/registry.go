// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"sync"
)

// Registry indexes the live sessions by session id and by participant.
// Together with the external in-match flag it enforces that a participant
// belongs to at most one live session at a time.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*MatchSession
	byUser map[string]*MatchSession
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*MatchSession),
		byUser: make(map[string]*MatchSession),
	}
}

func (r *Registry) Add(s *MatchSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID()] = s
	for _, userID := range s.Pairing().UserIDs() {
		r.byUser[userID] = s
	}
}

func (r *Registry) FindByID(sessionID string) (*MatchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	return s, ok
}

func (r *Registry) FindByUser(userID string) (*MatchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byUser[userID]
	return s, ok
}

// Remove drops the session from both indexes. Safe to call more than once.
func (r *Registry) Remove(s *MatchSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, s.ID())
	for _, userID := range s.Pairing().UserIDs() {
		if r.byUser[userID] == s {
			delete(r.byUser, userID)
		}
	}
}

// Size returns the number of live sessions.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
