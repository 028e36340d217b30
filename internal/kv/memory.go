package kv

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Backend. Values are lost on restart.
type Memory struct {
	mu   sync.RWMutex                 // guards data
	data map[string]map[string][]byte // scope → key → value
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

// Bucket returns the bucket for scope.
func (m *Memory) Bucket(scope string) Bucket {
	return &memoryBucket{m: m, scope: scope}
}

type memoryBucket struct {
	m     *Memory
	scope string
}

func (b *memoryBucket) Get(ctx context.Context, key string) ([]byte, error) {
	b.m.mu.RLock()
	defer b.m.mu.RUnlock()
	v, ok := b.m.data[b.scope][key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (b *memoryBucket) Put(ctx context.Context, key string, value []byte) error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	sc, ok := b.m.data[b.scope]
	if !ok {
		sc = make(map[string][]byte)
		b.m.data[b.scope] = sc
	}
	sc[key] = slices.Clone(value)
	return nil
}

func (b *memoryBucket) Delete(ctx context.Context, key string) error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	delete(b.m.data[b.scope], key)
	return nil
}
