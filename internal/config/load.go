package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zx06/xacct/internal/errors"
)

const fileName = "xacct.yaml"

func defaultConfigPaths(workDir, homeDir string) []string {
	paths := make([]string, 0, 2)
	if workDir != "" {
		paths = append(paths, filepath.Join(workDir, fileName))
	}
	if homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".config", "xacct", fileName))
	}
	return paths
}

// DefaultDataDir 是 file 后端的默认数据目录。
func DefaultDataDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", "xacct", "data")
}

func emptyFile() File {
	return File{Profiles: map[string]Profile{}, SSHProxies: map[string]SSHProxy{}}
}

func readFile(path string) (File, *errors.XError) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, errors.New(errors.CodeCfgNotFound, "config file not found", map[string]any{"path": path})
		}
		return File{}, errors.Wrap(errors.CodeCfgInvalid, "failed to read config file", map[string]any{"path": path}, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, errors.Wrap(errors.CodeCfgInvalid, "invalid config file", map[string]any{"path": path}, err)
	}
	if f.Profiles == nil {
		f.Profiles = map[string]Profile{}
	}
	if f.SSHProxies == nil {
		f.SSHProxies = map[string]SSHProxy{}
	}
	return f, nil
}

func fillDirs(opts *Options) {
	if opts.WorkDir == "" {
		wd, _ := os.Getwd()
		opts.WorkDir = wd
	}
	if opts.HomeDir == "" {
		if hd, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = hd
		}
	}
}

// LoadConfig 加载配置文件，返回完整配置和配置文件路径。
// 未指定 ConfigPath 且默认路径都不存在时返回空配置。
func LoadConfig(opts Options) (File, string, *errors.XError) {
	fillDirs(&opts)

	if opts.ConfigPath != "" {
		abs := opts.ConfigPath
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(opts.WorkDir, abs)
		}
		f, xe := readFile(abs)
		if xe != nil {
			return File{}, "", xe
		}
		return f, abs, nil
	}

	for _, p := range defaultConfigPaths(opts.WorkDir, opts.HomeDir) {
		f, xe := readFile(p)
		if xe != nil {
			if errors.HasCode(xe, errors.CodeCfgNotFound) {
				continue
			}
			return File{}, "", xe
		}
		return f, p, nil
	}

	return emptyFile(), "", nil
}
