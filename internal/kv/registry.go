package kv

import (
	"context"
	"slices"
	"sync"

	"github.com/zx06/xacct/internal/errors"
)

var (
	mu      sync.RWMutex
	openers = map[string]Opener{}
)

func Register(name string, o Opener) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("kv.Register: empty name")
	}
	if o == nil {
		panic("kv.Register: nil opener")
	}
	if _, exists := openers[name]; exists {
		panic("kv.Register: duplicate backend: " + name)
	}
	openers[name] = o
}

func Get(name string) (Opener, bool) {
	mu.RLock()
	defer mu.RUnlock()
	o, ok := openers[name]
	return o, ok
}

// RegisteredNames 返回已注册后端名（已排序）。
func RegisteredNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(openers))
	for k := range openers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Open 按名字打开后端。
func Open(ctx context.Context, name string, opts Options) (Store, *errors.XError) {
	o, ok := Get(name)
	if !ok {
		return nil, errors.New(errors.CodeStoreUnsupported, "unsupported store backend", map[string]any{"store": name, "available": RegisteredNames()})
	}
	return o.Open(ctx, opts)
}
