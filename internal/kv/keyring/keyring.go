// Package keyring 把 key 存在 OS keyring 中（service=前缀，user=key）。
package keyring

import (
	"context"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
	"github.com/zx06/xacct/internal/secret"
)

func init() {
	kv.Register("keyring", kv.OpenerFunc(func(ctx context.Context, opts kv.Options) (kv.Store, *errors.XError) {
		return New(secret.OSKeyring(), opts.Prefix), nil
	}))
}

type Store struct {
	kr      secret.KeyringAPI
	service string
}

// New 包装 kr；service 为空时使用 secret.ServiceName。
func New(kr secret.KeyringAPI, service string) *Store {
	if service == "" {
		service = secret.ServiceName
	}
	return &Store{kr: kr, service: service}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	v, err := s.kr.Get(s.service, key)
	if err != nil {
		if secret.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	return s.kr.Set(s.service, key, value)
}

func (s *Store) Close() error { return nil }
