package app

import (
	"strings"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/output"
	"github.com/zx06/xacct/internal/spec"
)

type App struct {
	Version string
	Commit  string
	Date    string
}

func New(version, commit, date string) App {
	return App{Version: version, Commit: commit, Date: date}
}

func (a App) BuildSpec() spec.Spec {
	globalFlags := []spec.FlagSpec{
		{Name: "config", Default: "", Description: "Config file path (YAML); default: ./xacct.yaml or $HOME/.config/xacct/xacct.yaml"},
		{Name: "profile", Shorthand: "p", Env: "XACCT_PROFILE", Default: "", Description: "Profile name (config: profiles.<name>)"},
		{Name: "format", Shorthand: "f", Env: "XACCT_FORMAT", Default: "auto", Description: "Output format: " + output.Usage()},
		{Name: "store", Env: "XACCT_STORE", Default: "file", Description: "Storage backend: " + StoreNames()},
		{Name: "verbose", Shorthand: "v", Default: "false", Description: "Debug logging on stderr"},
	}
	storeFlags := []spec.FlagSpec{
		{Name: "allow-plaintext", Default: "false", Description: "Allow plaintext secrets in config"},
		{Name: "ssh-skip-known-hosts-check", Default: "false", Description: "Skip SSH known_hosts check (dangerous)"},
	}
	withStore := func(extra ...spec.FlagSpec) []spec.FlagSpec {
		flags := make([]spec.FlagSpec, 0, len(globalFlags)+len(storeFlags)+len(extra))
		flags = append(flags, globalFlags...)
		flags = append(flags, storeFlags...)
		return append(flags, extra...)
	}
	reveal := spec.FlagSpec{Name: "reveal", Default: "false", Description: "Show passwords instead of ***"}

	return spec.Spec{
		SchemaVersion: output.SchemaVersion,
		Commands: []spec.CommandSpec{
			{Name: "spec", Description: "Export tool spec for AI/agents", Flags: globalFlags},
			{Name: "version", Description: "Print version information", Flags: globalFlags},
			{Name: "account list", Description: "List stored accounts in order", Flags: withStore(reveal)},
			{Name: "account show", Args: "<id>", Description: "Show one account", Flags: withStore(reveal)},
			{Name: "account create", Description: "Append a new empty LOCAL account", Flags: withStore(reveal)},
			{
				Name:        "account update",
				Args:        "<id>",
				Description: "Replace an account; LDAP accounts never keep a password",
				Flags: withStore(reveal,
					spec.FlagSpec{Name: "type", Description: "LDAP|LOCAL"},
					spec.FlagSpec{Name: "login", Description: "Login name"},
					spec.FlagSpec{Name: "password", Description: "Password (ignored for LDAP)"},
					spec.FlagSpec{Name: "labels", Description: "Labels separated by ';'"},
				),
			},
			{Name: "account delete", Args: "<id>", Description: "Remove every account with the id", Flags: withStore()},
			{Name: "labels parse", Args: "<text>", Description: "Split 'a; b' into labels", Flags: globalFlags},
			{Name: "labels format", Args: "<label>...", Description: "Join labels with '; '", Flags: globalFlags},
			{Name: "profile list", Description: "List configured profiles", Flags: globalFlags},
			{Name: "profile show", Args: "<name>", Description: "Show a profile (secrets redacted)", Flags: globalFlags},
			{
				Name:        "mcp server",
				Description: "Start the MCP server",
				Flags: withStore(
					spec.FlagSpec{Name: "transport", Env: "XACCT_MCP_TRANSPORT", Default: "stdio", Description: "stdio|streamable_http"},
					spec.FlagSpec{Name: "http-addr", Env: "XACCT_MCP_HTTP_ADDR", Default: "127.0.0.1:8787", Description: "Listen address for streamable_http"},
					spec.FlagSpec{Name: "http-auth-token", Env: "XACCT_MCP_HTTP_AUTH_TOKEN", Description: "Bearer token for streamable_http"},
				),
			},
		},
		Stores:     StoreSpecs(),
		ErrorCodes: errors.AllCodes(),
	}
}

// StoreSpecs 列出内置后端。
func StoreSpecs() []spec.StoreSpec {
	return []spec.StoreSpec{
		{Name: "memory"},
		{Name: "file", Fields: []string{"path"}},
		{Name: "keyring", Fields: []string{"prefix"}},
		{Name: "redis", Fields: []string{"addr", "host", "port", "user", "password", "redis_db", "prefix"}, Tunnelled: true},
		{Name: "pg", Fields: []string{"dsn", "host", "port", "user", "password", "database", "table", "params"}, Tunnelled: true},
		{Name: "mysql", Fields: []string{"dsn", "host", "port", "user", "password", "database", "table", "params"}, Tunnelled: true},
	}
}

// StoreNames 返回 "memory|file|..."，用于 flag 描述。
func StoreNames() string {
	names := make([]string, 0, len(StoreSpecs()))
	for _, st := range StoreSpecs() {
		names = append(names, st.Name)
	}
	return strings.Join(names, "|")
}

type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
}

func (a App) VersionInfo() VersionInfo {
	return VersionInfo{Version: a.Version, Commit: a.Commit, Date: a.Date}
}
