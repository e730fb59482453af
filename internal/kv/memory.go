package kv

import (
	"context"
	"sync"

	"github.com/zx06/xacct/internal/errors"
)

func init() {
	Register("memory", OpenerFunc(func(ctx context.Context, opts Options) (Store, *errors.XError) {
		return NewMemory(), nil
	}))
}

// Memory 是进程内 store，进程退出即丢失；用于测试与试运行。
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
