package token

import (
	"context"
	"sync"
)

// MemoryBackend keeps the token in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(_ context.Context) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.token == "" {
		return "", ErrNoToken
	}
	return b.token, nil
}

func (b *MemoryBackend) Save(_ context.Context, raw string) error {
	b.mu.Lock()
	b.token = raw
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Remove(_ context.Context) error {
	b.mu.Lock()
	b.token = ""
	b.mu.Unlock()
	return nil
}
