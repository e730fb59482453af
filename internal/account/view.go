package account

const redacted = "***"

// Redact 返回把非空密码替换为 "***" 的拷贝；null 与空串保持原样。
func Redact(a Account) Account {
	out := a.Clone()
	if out.Password != nil && *out.Password != "" {
		out.Password = StringPtr(redacted)
	}
	return out
}

// Table 是 account 列表的输出视图，table/csv 下按行渲染，json/yaml 下为数组。
type Table []Account

// NewTable 构造视图；reveal=false 时隐藏密码。
func NewTable(accounts []Account, reveal bool) Table {
	t := make(Table, len(accounts))
	for i, a := range accounts {
		if reveal {
			t[i] = a.Clone()
		} else {
			t[i] = Redact(a)
		}
	}
	return t
}

func (t Table) ToTableData() ([]string, []map[string]any, bool) {
	cols := []string{"id", "type", "login", "password", "labels"}
	rows := make([]map[string]any, len(t))
	for i, a := range t {
		var pw any
		if a.Password != nil {
			pw = *a.Password
		}
		rows[i] = map[string]any{
			"id":       a.ID,
			"type":     string(a.Type),
			"login":    a.Login,
			"password": pw,
			"labels":   StringifyLabels(a.Labels),
		}
	}
	return cols, rows, true
}
