package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
	"github.com/zx06/xacct/internal/kv/sqlkv"
)

func init() {
	kv.Register("mysql", &Opener{})
}

type Opener struct{}

var dialSeq atomic.Int64

func (o *Opener) Open(ctx context.Context, opts kv.Options) (kv.Store, *errors.XError) {
	cfg, xe := buildConfig(opts)
	if xe != nil {
		return nil, xe
	}
	// 使用 SSH 隧道时注册一个专用 network 名
	if opts.Dialer != nil {
		d := opts.Dialer
		netName := fmt.Sprintf("xacct-ssh-%d", dialSeq.Add(1))
		mysql.RegisterDialContext(netName, func(ctx context.Context, addr string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", addr)
		})
		cfg.Net = netName
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeCfgInvalid, "invalid mysql config", nil, err)
	}
	conn := sql.OpenDB(connector)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(errors.CodeStoreConnectFailed, "failed to ping mysql", nil, err)
	}
	s, xe := sqlkv.New(ctx, conn, opts.Table, sqlkv.MySQL{})
	if xe != nil {
		_ = conn.Close()
		return nil, xe
	}
	return s, nil
}

func buildConfig(opts kv.Options) (*mysql.Config, *errors.XError) {
	if opts.DSN != "" {
		cfg, err := mysql.ParseDSN(opts.DSN)
		if err != nil {
			return nil, errors.Wrap(errors.CodeCfgInvalid, "invalid mysql dsn", nil, err)
		}
		return cfg, nil
	}
	cfg := mysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	port := opts.Port
	if port == 0 {
		port = 3306
	}
	cfg.Addr = net.JoinHostPort(opts.Host, fmt.Sprint(port))
	cfg.DBName = opts.Database
	if len(opts.Params) > 0 {
		cfg.Params = map[string]string{}
		for k, v := range opts.Params {
			cfg.Params[k] = v
		}
	}
	return cfg, nil
}
