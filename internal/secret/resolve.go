package secret

import (
	"strings"

	"github.com/zx06/xacct/internal/errors"
)

const keyringPrefix = "keyring:"

// Options 控制 secret 解析行为。
type Options struct {
	AllowPlaintext bool       // 是否允许明文（默认 false）
	Keyring        KeyringAPI // 可注入的 keyring 实现（nil 则用默认）
}

// Resolve 解析 secret 值（store 密码、SSH passphrase、MCP token）：
//  1. keyring:xxx → 从 keyring 读取
//  2. 否则若为明文且允许明文 → 直接返回
//  3. 否则报错
func Resolve(raw string, opts Options) (string, *errors.XError) {
	if strings.HasPrefix(raw, keyringPrefix) {
		service, account, xe := parseKeyringRef(strings.TrimPrefix(raw, keyringPrefix))
		if xe != nil {
			return "", xe
		}
		kr := opts.Keyring
		if kr == nil {
			kr = OSKeyring()
		}
		val, err := kr.Get(service, account)
		if err != nil {
			return "", errors.Wrap(errors.CodeSecretNotFound, "failed to read secret from keyring", map[string]any{"key": account}, err)
		}
		return val, nil
	}
	// 明文
	if opts.AllowPlaintext {
		return raw, nil
	}
	return "", errors.New(errors.CodeCfgInvalid, "plaintext secret not allowed; use keyring: reference or enable allow_plaintext", nil)
}

// parseKeyringRef 把 keyring 引用拆成 service/account；service 固定为 ServiceName。
func parseKeyringRef(ref string) (string, string, *errors.XError) {
	if strings.TrimSpace(ref) == "" {
		return "", "", errors.New(errors.CodeCfgInvalid, "empty keyring reference", nil)
	}
	return ServiceName, ref, nil
}

// IsKeyringRef 判断值是否为 keyring 引用。
func IsKeyringRef(s string) bool {
	return strings.HasPrefix(s, keyringPrefix)
}
