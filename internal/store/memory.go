package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store.
type Memory struct {
	mu     sync.RWMutex
	doc    *Document
	closed bool
}

// NewMemory creates a memory store seeded with doc. A nil doc starts empty.
func NewMemory(doc *Document) *Memory {
	if doc == nil {
		doc = NewDocument()
	}
	return &Memory{doc: doc.Clone()}
}

// View implements Store.
func (m *Memory) View(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	snapshot := m.doc.Clone()
	m.mu.RUnlock()
	return fn(snapshot)
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	next := m.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	m.doc = next
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
