package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/zx06/xacct/internal/config"
	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/output"
)

// NewProfileCommand creates the profile command group
func NewProfileCommand(w *output.Writer) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage profiles",
	}

	profileCmd.AddCommand(newProfileListCommand(w))
	profileCmd.AddCommand(newProfileShowCommand(w))

	return profileCmd
}

type profileInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Store       string `json:"store" yaml:"store"`
	SSHProxy    string `json:"ssh_proxy,omitempty" yaml:"ssh_proxy,omitempty"`
}

type profileList struct {
	ConfigPath string        `json:"config_path" yaml:"config_path"`
	Profiles   []profileInfo `json:"profiles" yaml:"profiles"`
}

func (l profileList) ToTableData() ([]string, []map[string]any, bool) {
	rows := make([]map[string]any, len(l.Profiles))
	for i, p := range l.Profiles {
		rows[i] = map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"store":       p.Store,
			"ssh_proxy":   p.SSHProxy,
		}
	}
	return []string{"name", "description", "store", "ssh_proxy"}, rows, true
}

// newProfileListCommand creates the profile list command
func newProfileListCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}

			cfg, cfgPath, xe := config.LoadConfig(config.Options{
				ConfigPath: GlobalConfig.ConfigStr,
			})
			if xe != nil {
				return xe
			}

			return w.WriteOK(format, buildProfileList(cfg, cfgPath))
		},
	}
}

func buildProfileList(cfg config.File, cfgPath string) profileList {
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]profileInfo, 0, len(names))
	for _, name := range names {
		p := cfg.Profiles[name]
		store := p.Store
		if store == "" {
			store = config.DefaultStore
		}
		profiles = append(profiles, profileInfo{
			Name:        name,
			Description: p.Description,
			Store:       store,
			SSHProxy:    p.SSHProxy,
		})
	}
	return profileList{ConfigPath: cfgPath, Profiles: profiles}
}

// newProfileShowCommand creates the profile show command
func newProfileShowCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show profile details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}

			cfg, cfgPath, xe := config.LoadConfig(config.Options{
				ConfigPath: GlobalConfig.ConfigStr,
			})
			if xe != nil {
				return xe
			}

			result, xe := buildProfileDetail(cfg, cfgPath, name)
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, result)
		},
	}
}

// buildProfileDetail renders a profile with secrets redacted
func buildProfileDetail(cfg config.File, cfgPath, name string) (map[string]any, *errors.XError) {
	profile, ok := cfg.Profiles[name]
	if !ok {
		return nil, errors.New(errors.CodeCfgInvalid, "profile not found", map[string]any{"name": name})
	}

	store := profile.Store
	if store == "" {
		store = config.DefaultStore
	}
	result := map[string]any{
		"config_path":       cfgPath,
		"name":              name,
		"description":       profile.Description,
		"store":             store,
		"normalize_on_load": profile.NormalizeEnabled(),
		"allow_plaintext":   profile.AllowPlaintext,
	}
	setIf := func(key string, v string) {
		if v != "" {
			result[key] = v
		}
	}
	setIf("key", profile.Key)
	setIf("path", profile.Path)
	setIf("prefix", profile.Prefix)
	setIf("addr", profile.Addr)
	setIf("host", profile.Host)
	setIf("user", profile.User)
	setIf("database", profile.Database)
	setIf("table", profile.Table)
	if profile.Port != 0 {
		result["port"] = profile.Port
	}
	if profile.RedisDB != 0 {
		result["redis_db"] = profile.RedisDB
	}

	// Redact sensitive information: dsn may embed a password
	if profile.DSN != "" {
		result["dsn"] = "***"
	}
	if profile.Password != "" {
		result["password"] = "***"
	}
	if profile.SSHProxy != "" {
		result["ssh_proxy"] = profile.SSHProxy
		if proxy, ok := cfg.SSHProxies[profile.SSHProxy]; ok {
			result["ssh_host"] = proxy.Host
			result["ssh_port"] = proxy.Port
			result["ssh_user"] = proxy.User
			if proxy.IdentityFile != "" {
				result["ssh_identity_file"] = proxy.IdentityFile
			}
		}
	}
	return result, nil
}
