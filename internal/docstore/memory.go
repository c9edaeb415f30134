package docstore

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory keeps documents as encoded JSON in process memory. It backs the
// client-local chat cache and tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, name string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, wrap("load", name, err)
	}
	m.mu.RLock()
	raw, ok := m.docs[name]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, wrap("decode", name, err)
	}
	return true, nil
}

func (m *Memory) Save(ctx context.Context, name string, src any) error {
	if err := ctx.Err(); err != nil {
		return wrap("save", name, err)
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return wrap("encode", name, err)
	}
	m.mu.Lock()
	m.docs[name] = raw
	m.mu.Unlock()
	return nil
}
