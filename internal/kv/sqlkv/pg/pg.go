package pg

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
	"github.com/zx06/xacct/internal/kv/sqlkv"
)

func init() {
	kv.Register("pg", &Opener{})
}

type Opener struct{}

func (o *Opener) Open(ctx context.Context, opts kv.Options) (kv.Store, *errors.XError) {
	dsn := opts.DSN
	if dsn == "" {
		dsn = buildDSN(opts)
	}

	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(errors.CodeCfgInvalid, "invalid pg dsn", nil, err)
	}
	// 使用 SSH 隧道时替换 dialer
	if opts.Dialer != nil {
		d := opts.Dialer
		config.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return d.DialContext(ctx, network, addr)
		}
	}
	conn := stdlib.OpenDB(*config)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(errors.CodeStoreConnectFailed, "failed to ping pg", nil, err)
	}
	s, xe := sqlkv.New(ctx, conn, opts.Table, sqlkv.Postgres{})
	if xe != nil {
		_ = conn.Close()
		return nil, xe
	}
	return s, nil
}

func buildDSN(opts kv.Options) string {
	parts := []string{}
	if opts.Host != "" {
		parts = append(parts, fmt.Sprintf("host=%s", opts.Host))
	}
	if opts.Port != 0 {
		parts = append(parts, fmt.Sprintf("port=%d", opts.Port))
	}
	if opts.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", opts.User))
	}
	if opts.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteValue(opts.Password)))
	}
	if opts.Database != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", opts.Database))
	}
	keys := make([]string, 0, len(opts.Params))
	for k := range opts.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, quoteValue(opts.Params[k])))
	}
	return strings.Join(parts, " ")
}

// quoteValue 按 libpq keyword/value 语法给含空格或引号的值加引号。
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
