package ssh

import "time"

// Options 包含建立 SSH 隧道所需参数。
type Options struct {
	Host           string
	Port           int
	User           string
	IdentityFile   string // 私钥路径
	Passphrase     string // 私钥 passphrase（若有）
	Password       string // 密码认证（可选，私钥优先）
	KnownHostsFile string // 默认 ~/.ssh/known_hosts
	Timeout        time.Duration

	// SkipKnownHostsCheck 跳过 known_hosts 校验（极不推荐！）
	SkipKnownHostsCheck bool
}

const (
	defaultPort    = 22
	defaultTimeout = 10 * time.Second
)

func DefaultKnownHostsPath() string {
	return "~/.ssh/known_hosts"
}
