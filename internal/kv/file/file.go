// Package file 把每个 key 存为目录下的一个文件。
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
)

func init() {
	kv.Register("file", kv.OpenerFunc(func(ctx context.Context, opts kv.Options) (kv.Store, *errors.XError) {
		if opts.Path == "" {
			return nil, errors.New(errors.CodeCfgInvalid, "file store requires a directory path", nil)
		}
		s, err := New(opts.Path)
		if err != nil {
			return nil, errors.Wrap(errors.CodeStoreConnectFailed, "failed to prepare file store directory", map[string]any{"path": opts.Path}, err)
		}
		return s, nil
	}))
}

const fileSuffix = ".json"

type Store struct {
	dir string
}

// New 创建 store，目录不存在时以 0700 创建。
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir 返回数据目录。
func (s *Store) Dir() string { return s.dir }

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(b), true, nil
}

// Set 先写临时文件并 fsync，再 rename 覆盖，避免留下半截内容。
func (s *Store) Set(_ context.Context, key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, p)
}

func (s *Store) Close() error { return nil }

func (s *Store) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid key %q for file store", key)
	}
	return filepath.Join(s.dir, key+fileSuffix), nil
}
