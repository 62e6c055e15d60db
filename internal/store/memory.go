package store

import (
	"context"
	"sync"

	"github.com/scentlog/scentlog-server/internal/domain"
)

// Memory is an in-process Snapshotter. It keeps deep copies so callers can
// never alias the stored state.
type Memory struct {
	mu       sync.Mutex
	snap     *domain.Snapshot
	saves    int
	failNext error
	closed   bool
}

// NewMemory creates a memory store, optionally seeded with a snapshot.
func NewMemory(seed *domain.Snapshot) *Memory {
	m := &Memory{}
	if seed != nil {
		m.snap = seed.Clone()
	}
	return m
}

// Load implements Snapshotter.
func (m *Memory) Load(_ context.Context) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.snap == nil {
		return &domain.Snapshot{}, nil
	}
	return m.snap.Clone(), nil
}

// Save implements Snapshotter.
func (m *Memory) Save(_ context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.snap = snap.Clone()
	m.saves++
	return nil
}

// Close implements Snapshotter.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Saves returns how many saves succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailNextSave makes the next Save return err without storing anything.
func (m *Memory) FailNextSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}
