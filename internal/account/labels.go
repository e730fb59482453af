package account

import "strings"

const (
	labelSeparator = ";"
	labelJoiner    = "; "
)

// ParseLabels 按 ";" 切分 text，去掉首尾空白并丢弃空片段。
// 空白输入返回空（非 nil）切片。
func ParseLabels(text string) []Label {
	labels := []Label{}
	if strings.TrimSpace(text) == "" {
		return labels
	}
	for _, piece := range strings.Split(text, labelSeparator) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		labels = append(labels, Label{Text: piece})
	}
	return labels
}

// StringifyLabels 用 "; " 连接各 label 的 text。
func StringifyLabels(labels []Label) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.Text
	}
	return strings.Join(parts, labelJoiner)
}
