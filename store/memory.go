package store

import (
	"context"
	"sync"
)

// Memory is an in-process store for tests and throwaway sessions. It does
// not survive a restart and exists so engine tests need no Redis.
type Memory struct {
	mu      sync.Mutex
	access  string
	refresh string
	snap    Snapshot
	hasSnap bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) SetTokens(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *Memory) AccessToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, nil
}

func (s *Memory) RefreshToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh, nil
}

func (s *Memory) SaveSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.hasSnap = true
	return nil
}

func (s *Memory) Snapshot(context.Context) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.hasSnap, nil
}

func (s *Memory) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.snap = Snapshot{}
	s.hasSnap = false
	return nil
}
