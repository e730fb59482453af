package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/zx06/xacct/internal/errors"
	"gopkg.in/yaml.v3"
)

// TableFormatter 由希望以行列形式渲染（table/csv）的数据实现。
// ok=false 时回退到通用的 key/value 渲染。
type TableFormatter interface {
	ToTableData() (columns []string, rows []map[string]any, ok bool)
}

type Writer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, err io.Writer) Writer {
	return Writer{Out: out, Err: err}
}

func (w Writer) WriteOK(format Format, data any) error {
	return w.write(format, Success(data))
}

func (w Writer) WriteError(format Format, xe *errors.XError) error {
	return w.write(format, Failure(xe))
}

func (w Writer) write(format Format, env Envelope) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w.Out)
		enc.SetEscapeHTML(false)
		return enc.Encode(env)
	case FormatYAML:
		b, err := yaml.Marshal(env)
		if err != nil {
			return err
		}
		_, err = w.Out.Write(b)
		if err != nil {
			return err
		}
		if len(b) == 0 || b[len(b)-1] != '\n' {
			_, _ = w.Out.Write([]byte("\n"))
		}
		return nil
	case FormatTable:
		return writeTable(w.Out, env)
	case FormatCSV:
		return writeCSV(w.Out, env)
	default:
		return errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": string(format)})
	}
}

func tableData(data any) ([]string, []map[string]any, bool) {
	tf, ok := data.(TableFormatter)
	if !ok {
		return nil, nil, false
	}
	return tf.ToTableData()
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// keyValues 把非表格数据展开为有序的 key/value 对。
func keyValues(data any) [][2]string {
	m, ok := data.(map[string]any)
	if !ok {
		if data == nil {
			return nil
		}
		b, err := json.Marshal(data)
		if err != nil {
			return [][2]string{{"data", fmt.Sprint(data)}}
		}
		return [][2]string{{"data", string(b)}}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case string, bool, int, int64, float64, nil:
			out = append(out, [2]string{k, cell(v)})
		default:
			b, err := json.Marshal(v)
			if err != nil {
				out = append(out, [2]string{k, fmt.Sprint(v)})
				continue
			}
			out = append(out, [2]string{k, string(b)})
		}
	}
	return out
}

func writeTable(out io.Writer, env Envelope) error {
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	if !env.OK {
		_, _ = fmt.Fprintf(tw, "ok\t%v\n", false)
		_, _ = fmt.Fprintf(tw, "schema_version\t%d\n", env.SchemaVersion)
		if env.Error != nil {
			_, _ = fmt.Fprintf(tw, "error.code\t%s\n", env.Error.Code)
			_, _ = fmt.Fprintf(tw, "error.message\t%s\n", env.Error.Message)
		}
		return tw.Flush()
	}

	if cols, rows, ok := tableData(env.Data); ok {
		header := make([]string, len(cols))
		for i, c := range cols {
			header[i] = strings.ToUpper(c)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, row := range rows {
			vals := make([]string, len(cols))
			for i, c := range cols {
				vals[i] = cell(row[c])
			}
			_, _ = fmt.Fprintln(tw, strings.Join(vals, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "\n(%d rows)\n", len(rows))
		return err
	}

	for _, kv := range keyValues(env.Data) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", kv[0], kv[1])
	}
	return tw.Flush()
}

func writeCSV(out io.Writer, env Envelope) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()
	if env.OK {
		if cols, rows, ok := tableData(env.Data); ok {
			_ = cw.Write(cols)
			for _, row := range rows {
				vals := make([]string, len(cols))
				for i, c := range cols {
					vals[i] = cell(row[c])
				}
				_ = cw.Write(vals)
			}
			cw.Flush()
			return cw.Error()
		}
		// 非表格数据按 key,value 输出；结构化场景建议用 json/yaml。
		for _, kv := range keyValues(env.Data) {
			_ = cw.Write(kv[:])
		}
		cw.Flush()
		return cw.Error()
	}
	_ = cw.Write([]string{"ok", "false"})
	_ = cw.Write([]string{"schema_version", fmt.Sprintf("%d", env.SchemaVersion)})
	if env.Error != nil {
		_ = cw.Write([]string{"error.code", string(env.Error.Code)})
		_ = cw.Write([]string{"error.message", env.Error.Message})
	}
	cw.Flush()
	return cw.Error()
}
