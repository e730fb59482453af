package output

import "strings"

type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

// Formats 按帮助文本中的顺序列出所有格式。
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTable, FormatCSV, FormatAuto}
}

func IsValid(f Format) bool {
	for _, v := range Formats() {
		if f == v {
			return true
		}
	}
	return false
}

// Usage 返回 "json|yaml|table|csv|auto"，用于 flag 描述。
func Usage() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, "|")
}
