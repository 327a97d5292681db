// Package slot provides named key-value persistence slots. A slot holds one
// opaque blob per key and is always read and written whole.
package slot

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned when nothing has been stored under a key.
	ErrNotFound = errors.New("slot: key not found")

	// ErrQuotaExceeded is returned when a write does not fit the slot budget.
	ErrQuotaExceeded = errors.New("slot: storage quota exceeded")
)

// Slot defines the whole-value operations every backend supports.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Limited rejects writes larger than a fixed byte budget, emulating the
// per-origin quota of browser storage.
type Limited struct {
	next     Slot
	maxBytes int
}

// Limit wraps next with a byte budget. A non-positive budget disables it.
func Limit(next Slot, maxBytes int) Slot {
	if maxBytes <= 0 {
		return next
	}
	return &Limited{next: next, maxBytes: maxBytes}
}

func (l *Limited) Load(ctx context.Context, key string) ([]byte, error) {
	return l.next.Load(ctx, key)
}

func (l *Limited) Save(ctx context.Context, key string, data []byte) error {
	if len(data) > l.maxBytes {
		return fmt.Errorf("%w: %d bytes over budget of %d", ErrQuotaExceeded, len(data), l.maxBytes)
	}
	return l.next.Save(ctx, key, data)
}

// MaxBytes returns the configured budget.
func (l *Limited) MaxBytes() int {
	return l.maxBytes
}

// Memory is an in-process slot.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	value := make([]byte, len(data))
	copy(value, data)
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}
