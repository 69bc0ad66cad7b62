package storage

import (
	"context"
	"sync"
)

// Memory is an in-process KV. Writes counts successful Set calls.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	quota  int64
	Writes int

	// FailWith, when set, is returned by every Set.
	FailWith error
}

func NewMemory(opts Options) *Memory {
	return &Memory{values: map[string]string{}, quota: opts.MaxValueBytes}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if err := checkQuota(m.quota, key, value); err != nil {
		return err
	}
	m.values[key] = value
	m.Writes++
	return nil
}
