package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/livp123/proxylens/internal/runtime"
	"github.com/livp123/proxylens/internal/utils/fmtutil"
)

// render prints v as JSON with -o json, otherwise as the table built by rows.
// render 在 -o json 时以 JSON 输出 v，否则输出 rows 构建的表格。
func render(w io.Writer, v any, headers []string, rows func() [][]string) error {
	switch runtime.Output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "table", "":
		data := rows()
		if len(data) == 0 {
			_, err := fmt.Fprintln(w, " - No entries.")
			return err
		}
		return fmtutil.PrintTable(w, headers, data)
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", runtime.Output)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
