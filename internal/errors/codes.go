package errors

// Code 是稳定错误码（字符串），供 AI/agent 与程序判断。
// 只增不改、不复用旧含义。
type Code string

const (
	// Config / args
	CodeCfgNotFound    Code = "XACCT_CFG_NOT_FOUND"
	CodeCfgInvalid     Code = "XACCT_CFG_INVALID"
	CodeSecretNotFound Code = "XACCT_SECRET_NOT_FOUND"

	// SSH
	CodeSSHAuthFailed      Code = "XACCT_SSH_AUTH_FAILED"
	CodeSSHHostKeyMismatch Code = "XACCT_SSH_HOSTKEY_MISMATCH"
	CodeSSHDialFailed      Code = "XACCT_SSH_DIAL_FAILED"

	// Store
	CodeStoreUnsupported   Code = "XACCT_STORE_UNSUPPORTED"
	CodeStoreConnectFailed Code = "XACCT_STORE_CONNECT_FAILED"
	CodeStoreReadFailed    Code = "XACCT_STORE_READ_FAILED"
	CodeStoreWriteFailed   Code = "XACCT_STORE_WRITE_FAILED"
	CodeStoreCorrupt       Code = "XACCT_STORE_CORRUPT"
	CodeStoreNotLoaded     Code = "XACCT_STORE_NOT_LOADED"

	// Account
	CodeAccountNotFound Code = "XACCT_ACCOUNT_NOT_FOUND"

	// Internal
	CodeInternal Code = "XACCT_INTERNAL"
)

func AllCodes() []Code {
	return []Code{
		CodeCfgNotFound,
		CodeCfgInvalid,
		CodeSecretNotFound,
		CodeSSHAuthFailed,
		CodeSSHHostKeyMismatch,
		CodeSSHDialFailed,
		CodeStoreUnsupported,
		CodeStoreConnectFailed,
		CodeStoreReadFailed,
		CodeStoreWriteFailed,
		CodeStoreCorrupt,
		CodeStoreNotLoaded,
		CodeAccountNotFound,
		CodeInternal,
	}
}
