//go:build !windows

package secret

func cleanValue(val string) string {
	return val
}
