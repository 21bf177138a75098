package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/livp123/proxylens/internal/analytics"
	"github.com/livp123/proxylens/internal/app"
	"github.com/livp123/proxylens/internal/logsource"
	"github.com/livp123/proxylens/internal/parser"
	"github.com/livp123/proxylens/internal/utils/fmtutil"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show parsed log events, newest first",
	// Short: 显示解析后的日志事件（按时间倒序）
	Example: `  proxylens logs --level error --limit 20
  proxylens logs --domain shop.example.com --search /login
  proxylens logs --rule-id 942100 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		opts := app.QueryOptions{}
		opts.Limit, _ = f.GetInt("limit")
		opts.Offset, _ = f.GetInt("offset")
		opts.Level, _ = f.GetString("level")
		opts.Type, _ = f.GetString("type")
		opts.Search, _ = f.GetString("search")
		opts.Domain, _ = f.GetString("domain")
		opts.RuleID, _ = f.GetString("rule-id")
		opts.UniqueID, _ = f.GetString("unique-id")

		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			page := b.PageParsedLogs(ctx, opts)
			err := render(cmd.OutOrStdout(), page, []string{"TIME", "LEVEL", "TYPE", "SOURCE", "DOMAIN", "IP", "MESSAGE"}, func() [][]string {
				rows := make([][]string, 0, len(page.Events))
				for _, ev := range page.Events {
					rows = append(rows, []string{
						fmtutil.FormatTime(ev.Timestamp),
						string(ev.Level),
						string(ev.Type),
						ev.Source,
						dash(ev.Domain),
						dash(ev.IP),
						fmtutil.Ellipsize(eventSummary(&ev), 80),
					})
				}
				return rows
			})
			if err == nil && page.HasMore && opts.Limit > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "More events available: --offset %d\n", opts.Offset+len(page.Events))
			}
			return err
		})
	},
}

// eventSummary prefixes WAF messages with their rule id.
func eventSummary(ev *parser.LogEvent) string {
	if ev.IsWAF() && ev.RuleID != "" {
		return "[" + ev.RuleID + "] " + ev.Message
	}
	return ev.Message
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count events by level and type",
	// Short: 按级别与类型统计事件
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			s := b.GetLogStats(ctx)
			return render(cmd.OutOrStdout(), s, []string{"METRIC", "COUNT"}, func() [][]string {
				return statsRows(s)
			})
		})
	},
}

func statsRows(s analytics.LogStats) [][]string {
	return [][]string{
		{"total", fmtutil.FormatCount(s.Total)},
		{"level.info", fmtutil.FormatCount(s.ByLevel.Info)},
		{"level.warning", fmtutil.FormatCount(s.ByLevel.Warning)},
		{"level.error", fmtutil.FormatCount(s.ByLevel.Error)},
		{"type.access", fmtutil.FormatCount(s.ByType.Access)},
		{"type.error", fmtutil.FormatCount(s.ByType.Error)},
		{"type.system", fmtutil.FormatCount(s.ByType.System)},
	}
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List per-domain log files",
	// Short: 列出按域名划分的日志文件
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			sets := b.ListLogFiles(ctx)
			return render(cmd.OutOrStdout(), sets, []string{"DOMAIN", "ACCESS", "ERROR", "SSL ACCESS", "SSL ERROR"}, func() [][]string {
				return fileRows(sets)
			})
		})
	},
}

func fileRows(sets []logsource.DomainLogFileSet) [][]string {
	rows := make([][]string, 0, len(sets))
	for _, s := range sets {
		rows = append(rows, []string{s.Domain, dash(s.AccessLog), dash(s.ErrorLog), dash(s.SSLAccessLog), dash(s.SSLErrorLog)})
	}
	return rows
}

func init() {
	f := logsCmd.Flags()
	f.Int("limit", app.DefaultPageSize, "Events per page (max "+strconv.Itoa(app.MaxPageSize)+")")
	f.Int("offset", 0, "Events to skip")
	f.String("level", "", "Filter by level: info, warning, error")
	f.String("type", "", "Filter by type: access, error, system")
	f.String("search", "", "Case-insensitive text search over message, source, ip and path")
	f.String("domain", "", "Read only this domain's logs")
	f.String("rule-id", "", "Only WAF events with this rule id")
	f.String("unique-id", "", "Only WAF events with this unique id")
}
