package account

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
	xlog "github.com/zx06/xacct/internal/log"
)

// DefaultKey 是 account 列表在 store 中的固定 key。
const DefaultKey = "accounts"

// Repository 持有 account 列表，并在每次变更后把完整列表写回 store。
// 不是并发安全的：调用方需保证同一时间只有一个 goroutine 使用它。
type Repository struct {
	store           kv.Store
	key             string
	ids             IDGenerator
	logger          *slog.Logger
	normalizeOnLoad bool

	accounts []Account
	loaded   bool
}

// Option 配置 Repository。
type Option func(*Repository)

func WithKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.key = key
		}
	}
}

func WithIDGenerator(g IDGenerator) Option {
	return func(r *Repository) {
		if g != nil {
			r.ids = g
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNormalizeOnLoad 控制 Load 时是否把 LDAP 账户的密码置为 null（默认开启）。
func WithNormalizeOnLoad(enabled bool) Option {
	return func(r *Repository) {
		r.normalizeOnLoad = enabled
	}
}

// NewRepository 创建 Repository；使用前必须调用 Load。
func NewRepository(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store:           store,
		key:             DefaultKey,
		ids:             UUIDGenerator{},
		logger:          xlog.Discard(),
		normalizeOnLoad: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key 返回 store 中使用的 key。
func (r *Repository) Key() string { return r.key }

// Load 从 store 读取快照。key 不存在或值为空时得到空列表。
func (r *Repository) Load(ctx context.Context) *errors.XError {
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		return errors.Wrap(errors.CodeStoreReadFailed, "failed to read accounts from store", map[string]any{"key": r.key}, err)
	}

	var accounts []Account
	if found && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
			return errors.Wrap(errors.CodeStoreCorrupt, "stored accounts are not valid JSON", map[string]any{"key": r.key}, err)
		}
	}
	if accounts == nil {
		accounts = []Account{}
	}

	if r.normalizeOnLoad {
		for i := range accounts {
			if accounts[i].Type == TypeLDAP && accounts[i].Password != nil {
				r.logger.Warn("clearing password of stored LDAP account", "id", accounts[i].ID)
				accounts[i].Password = nil
			}
		}
	}

	r.accounts = accounts
	r.loaded = true
	r.logger.Debug("accounts loaded", "key", r.key, "count", len(accounts), "found", found)
	return nil
}

// List 按顺序返回所有 account 的拷贝。
func (r *Repository) List() []Account {
	out := make([]Account, len(r.accounts))
	for i, a := range r.accounts {
		out[i] = a.Clone()
	}
	return out
}

// Get 按 id 查找 account。
func (r *Repository) Get(id string) (Account, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.accounts[i].Clone(), true
	}
	return Account{}, false
}

// Create 追加一个空白的 LOCAL account 并持久化。
func (r *Repository) Create(ctx context.Context) (Account, *errors.XError) {
	if xe := r.ensureLoaded(); xe != nil {
		return Account{}, xe
	}
	acc := Account{
		ID:       r.ids.NewID(),
		Labels:   []Label{},
		Type:     TypeLocal,
		Login:    "",
		Password: StringPtr(""),
	}
	next := append(slices.Clone(r.accounts), acc)
	if xe := r.persist(ctx, next); xe != nil {
		return Account{}, xe
	}
	r.logger.Debug("account created", "id", acc.ID)
	return acc.Clone(), nil
}

// Update 用 a 整体替换同 id 的 account，返回是否命中。
// a.Type 为 LDAP 时 a.Password 会被置为 nil（直接修改调用方对象）。
// id 不存在时不做任何事，也不写 store。
func (r *Repository) Update(ctx context.Context, a *Account) (bool, *errors.XError) {
	if xe := r.ensureLoaded(); xe != nil {
		return false, xe
	}
	if a == nil {
		return false, errors.New(errors.CodeInternal, "account is nil", nil)
	}
	i := r.indexOf(a.ID)
	if i < 0 {
		r.logger.Debug("update skipped: account not found", "id", a.ID)
		return false, nil
	}
	if a.Type == TypeLDAP {
		a.Password = nil
	}
	next := slices.Clone(r.accounts)
	next[i] = a.Clone()
	if xe := r.persist(ctx, next); xe != nil {
		return false, xe
	}
	r.logger.Debug("account updated", "id", a.ID)
	return true, nil
}

// Delete 删除所有 id 匹配的 account 并持久化（无论是否命中），返回删除数量。
func (r *Repository) Delete(ctx context.Context, id string) (int, *errors.XError) {
	if xe := r.ensureLoaded(); xe != nil {
		return 0, xe
	}
	next := make([]Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		if a.ID != id {
			next = append(next, a)
		}
	}
	removed := len(r.accounts) - len(next)
	if xe := r.persist(ctx, next); xe != nil {
		return 0, xe
	}
	r.logger.Debug("account deleted", "id", id, "removed", removed)
	return removed, nil
}

func (r *Repository) ensureLoaded() *errors.XError {
	if !r.loaded {
		return errors.New(errors.CodeStoreNotLoaded, "account repository used before Load", map[string]any{"key": r.key})
	}
	return nil
}

func (r *Repository) indexOf(id string) int {
	return slices.IndexFunc(r.accounts, func(a Account) bool { return a.ID == id })
}

// persist 先完整写入 next，成功后才替换内存中的列表。
func (r *Repository) persist(ctx context.Context, next []Account) *errors.XError {
	raw, err := Encode(next)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode accounts", nil, err)
	}
	if err := r.store.Set(ctx, r.key, raw); err != nil {
		return errors.Wrap(errors.CodeStoreWriteFailed, "failed to write accounts to store", map[string]any{"key": r.key}, err)
	}
	r.accounts = next
	r.logger.Debug("accounts persisted", "key", r.key, "count", len(next), "bytes", len(raw))
	return nil
}

// Encode 把列表序列化为紧凑 JSON 数组（不转义 HTML 字符）。
func Encode(accounts []Account) (string, error) {
	if accounts == nil {
		accounts = []Account{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(accounts); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
