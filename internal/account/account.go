// Package account 维护 account 列表，并在每次变更后把完整列表写回 key-value store。
package account

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type 是 account 的认证类型。
type Type string

const (
	TypeLDAP  Type = "LDAP"
	TypeLocal Type = "LOCAL"
)

// legacyLocal 是早期 store 写入的 LOCAL 本地化拼写，读取时视为 TypeLocal。
const legacyLocal = "Локальная"

// ParseType 解析 CLI/MCP 输入的类型名（大小写不敏感）。
func ParseType(s string) (Type, error) {
	v := strings.TrimSpace(s)
	switch {
	case strings.EqualFold(v, string(TypeLDAP)):
		return TypeLDAP, nil
	case strings.EqualFold(v, string(TypeLocal)), v == legacyLocal:
		return TypeLocal, nil
	default:
		return "", fmt.Errorf("unknown account type %q (want LDAP or LOCAL)", s)
	}
}

func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case string(TypeLDAP):
		*t = TypeLDAP
	case string(TypeLocal), legacyLocal:
		*t = TypeLocal
	default:
		return fmt.Errorf("unknown account type %q", s)
	}
	return nil
}

// Label 是挂在 account 上的自由文本标签。
type Label struct {
	Text string `json:"text" yaml:"text"`
}

// Account 是一条凭据记录。Password 为 nil 表示 null（LDAP 账户不保存本地密码）。
type Account struct {
	ID       string  `json:"id" yaml:"id"`
	Labels   []Label `json:"labels" yaml:"labels"`
	Type     Type    `json:"type" yaml:"type"`
	Login    string  `json:"login" yaml:"login"`
	Password *string `json:"password" yaml:"password"`
}

// Clone 返回深拷贝；labels 的 nil/空切片区别被保留，保证序列化结果一致。
func (a Account) Clone() Account {
	out := a
	if a.Labels != nil {
		out.Labels = make([]Label, len(a.Labels))
		copy(out.Labels, a.Labels)
	}
	if a.Password != nil {
		pw := *a.Password
		out.Password = &pw
	}
	return out
}

// PasswordValue 返回密码，null 时返回空串。
func (a Account) PasswordValue() string {
	if a.Password == nil {
		return ""
	}
	return *a.Password
}

// StringPtr 便于构造非 null 的 Password。
func StringPtr(s string) *string {
	return &s
}
