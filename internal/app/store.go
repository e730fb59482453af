package app

import (
	"context"
	"log/slog"

	"github.com/zx06/xacct/internal/account"
	"github.com/zx06/xacct/internal/config"
	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
	"github.com/zx06/xacct/internal/secret"
	"github.com/zx06/xacct/internal/ssh"

	// 注册内置后端
	_ "github.com/zx06/xacct/internal/kv/file"
	_ "github.com/zx06/xacct/internal/kv/keyring"
	_ "github.com/zx06/xacct/internal/kv/redis"
	_ "github.com/zx06/xacct/internal/kv/sqlkv/mysql"
	_ "github.com/zx06/xacct/internal/kv/sqlkv/pg"
)

// Connection 持有打开的 store 以及可能的 SSH 隧道。
type Connection struct {
	Store     kv.Store
	SSHClient *ssh.Client
	Profile   config.Profile
}

func (c *Connection) Close() error {
	var errs []error
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.SSHClient != nil {
		if err := c.SSHClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

type StoreOptions struct {
	Profile          config.Profile
	AllowPlaintext   bool
	SkipHostKeyCheck bool

	// Keyring 用于解析 keyring: 引用；nil 则使用 OS keyring。
	Keyring secret.KeyringAPI
}

// networkStores 可以经由 ssh_proxy 访问。
var networkStores = map[string]bool{"redis": true, "pg": true, "mysql": true}

// OpenStore 根据 profile 打开 key-value 后端。
func OpenStore(ctx context.Context, opts StoreOptions) (*Connection, *errors.XError) {
	p := opts.Profile
	if _, ok := kv.Get(p.Store); !ok {
		return nil, errors.New(errors.CodeStoreUnsupported, "unsupported store backend", map[string]any{"store": p.Store, "available": kv.RegisteredNames()})
	}
	if p.SSHConfig != nil && !networkStores[p.Store] {
		return nil, errors.New(errors.CodeCfgInvalid, "ssh_proxy is only supported by network stores", map[string]any{"store": p.Store})
	}

	allowPlaintext := opts.AllowPlaintext || p.AllowPlaintext
	secretOpts := secret.Options{AllowPlaintext: allowPlaintext, Keyring: opts.Keyring}

	password := p.Password
	if password != "" {
		pw, xe := secret.Resolve(password, secretOpts)
		if xe != nil {
			return nil, xe
		}
		password = pw
	}

	sshClient, xe := ResolveSSH(ctx, p, secretOpts, opts.SkipHostKeyCheck)
	if xe != nil {
		return nil, xe
	}

	kvOpts := kv.Options{
		Path:     p.Path,
		Prefix:   p.Prefix,
		Addr:     p.Addr,
		RedisDB:  p.RedisDB,
		DSN:      p.DSN,
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: password,
		Database: p.Database,
		Table:    p.Table,
		Params:   p.Params,
	}
	if sshClient != nil {
		kvOpts.Dialer = sshClient
	}

	store, xe := kv.Open(ctx, p.Store, kvOpts)
	if xe != nil {
		if sshClient != nil {
			_ = sshClient.Close()
		}
		return nil, xe
	}
	return &Connection{Store: store, SSHClient: sshClient, Profile: p}, nil
}

// ResolveSSH 在 profile 配置了 ssh_proxy 时建立 SSH 连接，否则返回 nil。
func ResolveSSH(ctx context.Context, profile config.Profile, secretOpts secret.Options, skipHostKeyCheck bool) (*ssh.Client, *errors.XError) {
	if profile.SSHConfig == nil {
		return nil, nil
	}
	sc := profile.SSHConfig

	passphrase := sc.Passphrase
	if passphrase != "" {
		pp, xe := secret.Resolve(passphrase, secretOpts)
		if xe != nil {
			return nil, xe
		}
		passphrase = pp
	}
	password := sc.Password
	if password != "" {
		pw, xe := secret.Resolve(password, secretOpts)
		if xe != nil {
			return nil, xe
		}
		password = pw
	}

	return ssh.Connect(ctx, ssh.Options{
		Host:                sc.Host,
		Port:                sc.Port,
		User:                sc.User,
		IdentityFile:        sc.IdentityFile,
		Passphrase:          passphrase,
		Password:            password,
		KnownHostsFile:      sc.KnownHostsFile,
		SkipKnownHostsCheck: skipHostKeyCheck || sc.SkipHostKey,
	})
}

// OpenRepository 打开 store 并加载 account 快照。
// 返回的 Connection 由调用方负责 Close。
func OpenRepository(ctx context.Context, opts StoreOptions, logger *slog.Logger) (*account.Repository, *Connection, *errors.XError) {
	conn, xe := OpenStore(ctx, opts)
	if xe != nil {
		return nil, nil, xe
	}

	repoOpts := []account.Option{account.WithNormalizeOnLoad(opts.Profile.NormalizeEnabled())}
	if opts.Profile.Key != "" {
		repoOpts = append(repoOpts, account.WithKey(opts.Profile.Key))
	}
	if logger != nil {
		repoOpts = append(repoOpts, account.WithLogger(logger.With("store", opts.Profile.Store)))
	}

	repo := account.NewRepository(conn.Store, repoOpts...)
	if xe := repo.Load(ctx); xe != nil {
		_ = conn.Close()
		return nil, nil, xe
	}
	return repo, conn, nil
}
