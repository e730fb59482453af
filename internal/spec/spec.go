package spec

import "github.com/zx06/xacct/internal/errors"

type FlagSpec struct {
	Name        string `json:"name" yaml:"name"`
	Shorthand   string `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Env         string `json:"env,omitempty" yaml:"env,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type CommandSpec struct {
	Name        string     `json:"name" yaml:"name"`
	Args        string     `json:"args,omitempty" yaml:"args,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Flags       []FlagSpec `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// StoreSpec 描述一个可用的 key-value 后端及其读取的 profile 字段。
type StoreSpec struct {
	Name      string   `json:"name" yaml:"name"`
	Fields    []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Tunnelled bool     `json:"ssh_proxy" yaml:"ssh_proxy"`
}

type Spec struct {
	SchemaVersion int           `json:"schema_version" yaml:"schema_version"`
	Commands      []CommandSpec `json:"commands" yaml:"commands"`
	Stores        []StoreSpec   `json:"stores" yaml:"stores"`
	ErrorCodes    []errors.Code `json:"error_codes" yaml:"error_codes"`
}
