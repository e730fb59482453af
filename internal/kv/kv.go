// Package kv 定义 account 快照所用的 key-value 存储抽象与后端注册表。
package kv

import (
	"context"
	"net"

	"github.com/zx06/xacct/internal/errors"
)

// Store 是最小的字符串 key-value 接口。
// Get 在 key 不存在时返回 found=false 且 err=nil。
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Dialer 用于经由 SSH 隧道访问网络后端（redis/pg/mysql）。
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// Options 是打开后端所需的参数；各后端只读取自己关心的字段。
type Options struct {
	// file
	Path string

	// keyring service / redis key 前缀
	Prefix string

	// redis
	Addr    string
	RedisDB int

	// pg / mysql
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Table    string
	Params   map[string]string

	Dialer Dialer
}

// Opener 打开一个后端实例。
type Opener interface {
	Open(ctx context.Context, opts Options) (Store, *errors.XError)
}

// OpenerFunc 让普通函数满足 Opener。
type OpenerFunc func(ctx context.Context, opts Options) (Store, *errors.XError)

func (f OpenerFunc) Open(ctx context.Context, opts Options) (Store, *errors.XError) {
	return f(ctx, opts)
}
