package account

import "github.com/google/uuid"

// IDGenerator 为新 account 生成唯一 id；repository 不校验唯一性。
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc 让普通函数满足 IDGenerator。
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// UUIDGenerator 生成随机 (v4) UUID。
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
