// Package sqlkv 在关系数据库的一张两列表里保存 key-value。
// 具体驱动见 sqlkv/pg 与 sqlkv/mysql。
package sqlkv

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"regexp"

	"github.com/zx06/xacct/internal/errors"
)

// DefaultTable 是未配置 table 时使用的表名。
const DefaultTable = "xacct_kv"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Dialect 描述不同数据库的建表与 upsert 语句。
type Dialect interface {
	Name() string
	CreateTable(table string) string
	Select(table string) string
	Upsert(table string) string
}

type Store struct {
	db      *sql.DB
	table   string
	dialect Dialect
}

// ValidateTable 校验表名（表名无法参数化，只允许标识符字符）。
func ValidateTable(table string) (string, *errors.XError) {
	if table == "" {
		return DefaultTable, nil
	}
	if !tableNameRe.MatchString(table) {
		return "", errors.New(errors.CodeCfgInvalid, "invalid table name", map[string]any{"table": table})
	}
	return table, nil
}

// New 确保表存在并返回 store。db 的所有权转移给 Store。
func New(ctx context.Context, db *sql.DB, table string, d Dialect) (*Store, *errors.XError) {
	table, xe := ValidateTable(table)
	if xe != nil {
		return nil, xe
	}
	if _, err := db.ExecContext(ctx, d.CreateTable(table)); err != nil {
		return nil, errors.Wrap(errors.CodeStoreConnectFailed, "failed to create kv table", map[string]any{"table": table, "db": d.Name()}, err)
	}
	return &Store{db: db, table: table, dialect: d}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.dialect.Select(s.table), key).Scan(&v)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s select: %w", s.dialect.Name(), err)
	}
	return v, true, nil
}

// Set 在单条 upsert 语句中完成覆盖写。
func (s *Store) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Upsert(s.table), key, value); err != nil {
		return fmt.Errorf("%s upsert: %w", s.dialect.Name(), err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Postgres 方言。
type Postgres struct{}

func (Postgres) Name() string { return "pg" }

func (Postgres) CreateTable(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (kv_key TEXT PRIMARY KEY, kv_value TEXT NOT NULL)", table)
}

func (Postgres) Select(table string) string {
	return fmt.Sprintf("SELECT kv_value FROM %s WHERE kv_key = $1", table)
}

func (Postgres) Upsert(table string) string {
	return fmt.Sprintf("INSERT INTO %s (kv_key, kv_value) VALUES ($1, $2) ON CONFLICT (kv_key) DO UPDATE SET kv_value = EXCLUDED.kv_value", table)
}

// MySQL 方言。
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) CreateTable(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (kv_key VARCHAR(255) NOT NULL PRIMARY KEY, kv_value LONGTEXT NOT NULL) DEFAULT CHARSET=utf8mb4", table)
}

func (MySQL) Select(table string) string {
	return fmt.Sprintf("SELECT kv_value FROM %s WHERE kv_key = ?", table)
}

func (MySQL) Upsert(table string) string {
	return fmt.Sprintf("INSERT INTO %s (kv_key, kv_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE kv_value = VALUES(kv_value)", table)
}
