package config

// File 表示 xacct.yaml 的配置结构。
// 约束：配置优先级为 CLI > ENV > Config。
type File struct {
	Profiles   map[string]Profile  `yaml:"profiles"`
	SSHProxies map[string]SSHProxy `yaml:"ssh_proxies"`
	MCP        MCPConfig           `yaml:"mcp"`
}

type Profile struct {
	Description string `yaml:"description"`
	Format      string `yaml:"format"`

	// Store 选择后端：memory | file | keyring | redis | pg | mysql
	Store string `yaml:"store"`
	Key   string `yaml:"key"` // 快照 key，默认 accounts

	// file
	Path string `yaml:"path"`

	// keyring service / redis key 前缀
	Prefix string `yaml:"prefix"`

	// redis
	Addr    string `yaml:"addr"`
	RedisDB int    `yaml:"redis_db"`

	// pg / mysql（redis 也使用 user/password）
	DSN      string            `yaml:"dsn"` // 原生 DSN（优先）
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"` // 支持 keyring:xxx 引用
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Params   map[string]string `yaml:"params"`

	AllowPlaintext bool `yaml:"allow_plaintext"`

	// NormalizeOnLoad 为 nil 时默认开启。
	NormalizeOnLoad *bool `yaml:"normalize_on_load"`

	SSHProxy  string    `yaml:"ssh_proxy"`
	SSHConfig *SSHProxy `yaml:"-"` // 由 ssh_proxy 解析得到
}

// NormalizeEnabled 返回 normalize_on_load 的实际取值。
func (p Profile) NormalizeEnabled() bool {
	return p.NormalizeOnLoad == nil || *p.NormalizeOnLoad
}

type SSHProxy struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	IdentityFile   string `yaml:"identity_file"`
	Passphrase     string `yaml:"passphrase"` // 支持 keyring:xxx 引用
	Password       string `yaml:"password"`   // 支持 keyring:xxx 引用
	KnownHostsFile string `yaml:"known_hosts_file"`
	SkipHostKey    bool   `yaml:"skip_host_key"` // 极不推荐
}

type MCPConfig struct {
	Transport string        `yaml:"transport"`
	HTTP      MCPHTTPConfig `yaml:"http"`
}

type MCPHTTPConfig struct {
	Addr                string `yaml:"addr"`
	AuthToken           string `yaml:"auth_token"` // 支持 keyring:xxx 引用
	AllowPlaintextToken bool   `yaml:"allow_plaintext_token"`
}

type Resolved struct {
	ConfigPath  string
	ProfileName string
	Format      string
	Profile     Profile // 已合并 store 覆盖与默认值
}

type Options struct {
	// ConfigPath: 若非空，则只读取该文件（不存在报错）。
	ConfigPath string

	// CLI
	CLIProfile    string
	CLIProfileSet bool
	CLIFormat     string
	CLIFormatSet  bool
	CLIStore      string
	CLIStoreSet   bool

	// ENV（由调用方注入，便于测试）
	EnvProfile string
	EnvFormat  string
	EnvStore   string

	// HomeDir 用于默认路径计算（为空则自动探测）。
	HomeDir string

	// WorkDir 用于默认路径（为空则使用进程当前工作目录）。
	WorkDir string
}
