package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/livp123/proxylens/internal/analytics"
	"github.com/livp123/proxylens/internal/runtime"
	"github.com/livp123/proxylens/internal/utils/fmtutil"
	"github.com/spf13/cobra"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Bucket requests by status over the analytics window",
	// Short: 在分析窗口内按状态码对请求分桶
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetInt("interval")
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			buckets := b.GetRequestTrend(ctx, interval)
			headers := []string{"BUCKET", "TOTAL", "200", "301", "302", "400", "403", "404", "500", "502", "503", "OTHER"}
			return render(cmd.OutOrStdout(), buckets, headers, func() [][]string {
				rows := make([][]string, 0, len(buckets))
				for _, bk := range buckets {
					rows = append(rows, []string{
						fmtutil.FormatTime(bk.Timestamp),
						fmtutil.FormatCount(bk.Total),
						strconv.Itoa(bk.Status200), strconv.Itoa(bk.Status301), strconv.Itoa(bk.Status302),
						strconv.Itoa(bk.Status400), strconv.Itoa(bk.Status403), strconv.Itoa(bk.Status404),
						strconv.Itoa(bk.Status500), strconv.Itoa(bk.Status502), strconv.Itoa(bk.Status503),
						strconv.Itoa(bk.StatusOther),
					})
				}
				return rows
			})
		})
	},
}

var attacksCmd = &cobra.Command{
	Use:   "attacks",
	Short: "Rank attack types seen by the WAF",
	// Short: 对 WAF 检测到的攻击类型排名
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			stats := b.GetLatestAttacks(ctx, limit)
			return render(cmd.OutOrStdout(), stats, []string{"ATTACK", "COUNT", "SEVERITY", "LAST SEEN", "RULES"}, func() [][]string {
				rows := make([][]string, 0, len(stats))
				for _, s := range stats {
					rows = append(rows, []string{
						s.AttackType,
						fmtutil.FormatCount(s.Count),
						dash(s.Severity),
						fmtutil.FormatTime(s.LastOccurred),
						fmtutil.Ellipsize(dash(strings.Join(s.RuleIDs, ",")), 40),
					})
				}
				return rows
			})
		})
	},
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "List the latest security events",
	// Short: 列出最新的安全事件
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			entries := b.GetLatestNews(ctx, limit)
			headers := []string{"TIME", "ATTACKER", "DOMAIN", "PATH", "ATTACK", "RULE", "SEVERITY", "ACTION"}
			return render(cmd.OutOrStdout(), entries, headers, func() [][]string {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						fmtutil.FormatTime(e.Timestamp),
						dash(e.AttackerIP),
						dash(e.Domain),
						fmtutil.Ellipsize(dash(e.URLPath), 40),
						e.AttackType,
						dash(e.RuleID),
						dash(e.Severity),
						e.Action,
					})
				}
				return rows
			})
		})
	},
}

var ipsCmd = &cobra.Command{
	Use:   "ips",
	Short: "Per-IP requests, errors and attacks",
	// Short: 按 IP 统计请求、错误与攻击
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			ra := b.GetRequestAnalytics(ctx, period)
			err := render(cmd.OutOrStdout(), ra, []string{"IP", "REQUESTS", "ERRORS", "ATTACKS", "LAST SEEN"}, func() [][]string {
				return ipRows(ra)
			})
			if err == nil && ra.TotalRequests > 0 && runtime.Output != "json" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nTotal requests: %s, unique IPs: %s (%s)\n",
					fmtutil.FormatCount(ra.TotalRequests), fmtutil.FormatCount(ra.UniqueIPs), ra.Period)
			}
			return err
		})
	},
}

func ipRows(ra analytics.RequestAnalytics) [][]string {
	rows := make([][]string, 0, len(ra.TopIPs))
	for _, e := range ra.TopIPs {
		rows = append(rows, []string{
			e.IP,
			fmtutil.FormatCount(e.RequestCount),
			fmtutil.FormatCount(e.ErrorCount),
			fmtutil.FormatCount(e.AttackCount),
			fmtutil.FormatTime(e.LastSeen),
		})
	}
	return rows
}

var ratioCmd = &cobra.Command{
	Use:   "ratio",
	Short: "Attack share of all requests",
	// Short: 攻击请求占全部请求的比例
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			r := b.GetAttackRatio(ctx)
			return render(cmd.OutOrStdout(), r, []string{"METRIC", "VALUE"}, func() [][]string {
				return [][]string{
					{"total", fmtutil.FormatCount(r.TotalRequests)},
					{"attack", fmtutil.FormatCount(r.AttackRequests)},
					{"normal", fmtutil.FormatCount(r.NormalRequests)},
					{"attack share", fmtutil.FormatPercent(r.AttackPercentage)},
				}
			})
		})
	},
}

func init() {
	trendCmd.Flags().Int("interval", 60, "Bucket width in seconds (5-60)")
	attacksCmd.Flags().Int("limit", analytics.DefaultTopK, "Attack types to show")
	newsCmd.Flags().Int("limit", 20, "Events to show")
	ipsCmd.Flags().String("period", analytics.PeriodDay, "Period: day, week or month")
}
