package output

import "github.com/zx06/xacct/internal/errors"

// SchemaVersion 随 envelope 结构的不兼容变更递增。
const SchemaVersion = 1

type ErrorObject struct {
	Code    errors.Code    `json:"code" yaml:"code"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Envelope 是 CLI 与 MCP 共用的输出外壳：成功时带 data，失败时带 error。
type Envelope struct {
	OK            bool         `json:"ok" yaml:"ok"`
	SchemaVersion int          `json:"schema_version" yaml:"schema_version"`
	Error         *ErrorObject `json:"error,omitempty" yaml:"error,omitempty"`
	Data          any          `json:"data,omitempty" yaml:"data,omitempty"`
}

// Success 构造成功 envelope。
func Success(data any) Envelope {
	return Envelope{OK: true, SchemaVersion: SchemaVersion, Data: data}
}

// Failure 构造失败 envelope；xe 的 cause 不会被输出。
func Failure(xe *errors.XError) Envelope {
	if xe == nil {
		xe = errors.AsOrWrap(nil)
	}
	return Envelope{
		OK:            false,
		SchemaVersion: SchemaVersion,
		Error:         &ErrorObject{Code: xe.Code, Message: xe.Message, Details: xe.Details},
	}
}
