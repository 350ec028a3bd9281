package store

import (
	"context"
	"slices"
	"sync"
)

// Slot is a single named location holding the serialized booking collection.
// Read returns nil data and no error when the slot has never been written.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// MemorySlot keeps the collection in process memory.
type MemorySlot struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

func NewMemorySlot(initial []byte) *MemorySlot {
	return &MemorySlot{data: slices.Clone(initial)}
}

func (m *MemorySlot) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.data), nil
}

func (m *MemorySlot) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = slices.Clone(data)
	m.writes++

	return nil
}

// Writes returns how many times the slot has been written.
func (m *MemorySlot) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}
