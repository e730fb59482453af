//go:build windows

package secret

import "strings"

// Windows cmdkey 在字符间插入 null 字节（UTF-16 遗留问题）
func cleanValue(val string) string {
	return strings.ReplaceAll(val, "\x00", "")
}
