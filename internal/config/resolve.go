package config

import (
	"path/filepath"
	"strings"

	"github.com/zx06/xacct/internal/errors"
)

// DefaultStore 是未配置时使用的后端。
const DefaultStore = "file"

// Resolve 合并 config/profile/format/store：CLI > ENV > Config > 默认值。
func Resolve(opts Options) (Resolved, *errors.XError) {
	fillDirs(&opts)

	// 1) 读取配置文件（如有）
	cfg, cfgPath, xe := LoadConfig(opts)
	if xe != nil {
		return Resolved{}, xe
	}

	// 2) 选择 profile：--profile > XACCT_PROFILE > profiles.default > 空
	profile := ""
	if opts.CLIProfileSet {
		profile = opts.CLIProfile
	} else if opts.EnvProfile != "" {
		profile = opts.EnvProfile
	} else if _, ok := cfg.Profiles["default"]; ok {
		profile = "default"
	}

	// 3) 获取完整 profile；显式指定但不存在时报错
	var selected Profile
	if profile != "" {
		p, ok := cfg.Profiles[profile]
		if !ok {
			return Resolved{}, errors.New(errors.CodeCfgInvalid, "profile not found", map[string]any{"name": profile, "config_path": cfgPath})
		}
		selected = p
	}

	// 4) 合并 format：--format > XACCT_FORMAT > profile.format > auto
	format := "auto"
	if selected.Format != "" {
		format = selected.Format
	}
	if opts.EnvFormat != "" {
		format = opts.EnvFormat
	}
	if opts.CLIFormatSet {
		format = opts.CLIFormat
	}

	// 5) 合并 store：--store > XACCT_STORE > profile.store > file
	if opts.EnvStore != "" {
		selected.Store = opts.EnvStore
	}
	if opts.CLIStoreSet {
		selected.Store = opts.CLIStore
	}
	selected.Store = strings.TrimSpace(selected.Store)
	if selected.Store == "" {
		selected.Store = DefaultStore
	}
	if selected.Store == "file" {
		if selected.Path == "" {
			selected.Path = DefaultDataDir(opts.HomeDir)
		}
		selected.Path = expandHome(selected.Path, opts.HomeDir)
		if !filepath.IsAbs(selected.Path) {
			selected.Path = filepath.Join(opts.WorkDir, selected.Path)
		}
	}

	// 6) 解析 ssh_proxy 引用
	if selected.SSHProxy != "" {
		proxy, ok := cfg.SSHProxies[selected.SSHProxy]
		if !ok {
			return Resolved{}, errors.New(errors.CodeCfgInvalid, "ssh proxy not found", map[string]any{"ssh_proxy": selected.SSHProxy, "profile": profile})
		}
		selected.SSHConfig = &proxy
	}

	return Resolved{ConfigPath: cfgPath, ProfileName: profile, Format: format, Profile: selected}, nil
}

func expandHome(p, home string) string {
	if strings.HasPrefix(p, "~/") && home != "" {
		return filepath.Join(home, p[2:])
	}
	return p
}
