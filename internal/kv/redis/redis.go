// Package redis 把 key 存为 Redis 字符串（可选前缀）。
package redis

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
)

func init() {
	kv.Register("redis", kv.OpenerFunc(open))
}

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	DB       int
	Username string
	Password string
	Prefix   string
	Timeout  time.Duration
	Dialer   kv.Dialer
}

type Store struct {
	client *redis.Client
	prefix string
}

func open(ctx context.Context, opts kv.Options) (kv.Store, *errors.XError) {
	addr := opts.Addr
	if addr == "" && opts.Host != "" {
		port := opts.Port
		if port == 0 {
			port = 6379
		}
		addr = net.JoinHostPort(opts.Host, fmt.Sprint(port))
	}
	if addr == "" {
		return nil, errors.New(errors.CodeCfgInvalid, "redis store requires addr", nil)
	}
	s, err := Connect(ctx, Config{
		Addr:     addr,
		DB:       opts.RedisDB,
		Username: opts.User,
		Password: opts.Password,
		Prefix:   opts.Prefix,
		Dialer:   opts.Dialer,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeStoreConnectFailed, "failed to connect to redis", map[string]any{"addr": addr}, err)
	}
	return s, nil
}

// Connect initialises a Redis client and validates connectivity with a ping.
// A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ropts := &redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if cfg.Dialer != nil {
		d := cfg.Dialer
		ropts.Dialer = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return d.DialContext(ctx, network, addr)
		}
	}
	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// key format: <prefix>:<key>，无前缀时直接使用 key。
func (s *Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
