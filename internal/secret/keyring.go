package secret

import (
	stderrors "errors"

	"github.com/zalando/go-keyring"
)

// ServiceName 是 xacct 在 OS keyring 中使用的默认 service。
const ServiceName = "xacct"

// KeyringAPI 是对 OS keyring 的最小抽象，便于测试与跨平台。
// service 对应 keyring 的 service name，account 对应 user/account。
type KeyringAPI interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}

// OSKeyring 返回基于 zalando/go-keyring 的默认实现。
func OSKeyring() KeyringAPI {
	return &osKeyring{}
}

type osKeyring struct{}

func (o *osKeyring) Get(service, account string) (string, error) {
	val, err := keyring.Get(service, account)
	if err != nil {
		return "", err
	}
	return cleanValue(val), nil
}

func (o *osKeyring) Set(service, account, value string) error {
	return keyring.Set(service, account, value)
}

func (o *osKeyring) Delete(service, account string) error {
	return keyring.Delete(service, account)
}

// IsNotFound 判断 keyring 错误是否为“条目不存在”。
func IsNotFound(err error) bool {
	return stderrors.Is(err, keyring.ErrNotFound)
}
