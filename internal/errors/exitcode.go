package errors

// ExitCode 是进程退出码（稳定契约）。
type ExitCode int

const (
	ExitOK ExitCode = 0

	// 2: 参数/配置错误
	ExitConfig ExitCode = 2

	// 3: 连接错误（store/SSH）
	ExitConnect ExitCode = 3

	// 4: 指定的 account 不存在
	ExitNotFound ExitCode = 4

	// 5: store 读写错误
	ExitStore ExitCode = 5

	// 10: 内部错误
	ExitInternal ExitCode = 10
)

func ExitCodeFor(code Code) ExitCode {
	switch code {
	case CodeCfgNotFound, CodeCfgInvalid, CodeSecretNotFound, CodeStoreUnsupported:
		return ExitConfig
	case CodeSSHAuthFailed, CodeSSHHostKeyMismatch, CodeSSHDialFailed, CodeStoreConnectFailed:
		return ExitConnect
	case CodeAccountNotFound:
		return ExitNotFound
	case CodeStoreReadFailed, CodeStoreWriteFailed, CodeStoreCorrupt:
		return ExitStore
	case CodeStoreNotLoaded, CodeInternal:
		fallthrough
	default:
		return ExitInternal
	}
}
