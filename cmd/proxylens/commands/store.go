package commands

import (
	"context"

	"github.com/livp123/proxylens/internal/app"
	"github.com/livp123/proxylens/internal/utils/fmtutil"
	"github.com/spf13/cobra"
)

var slowCmd = &cobra.Command{
	Use:   "slow",
	Short: "Slowest domains from the performance store",
	// Short: 来自性能存储的最慢域名
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			entries := b.GetSlowRequests(ctx, limit)
			return render(cmd.OutOrStdout(), entries, []string{"DOMAIN", "AVG", "MAX", "REQUESTS"}, func() [][]string {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.Domain,
						fmtutil.FormatResponseTime(e.AvgResponseTime),
						fmtutil.FormatResponseTime(e.MaxResponseTime),
						fmtutil.FormatCount(int(e.RequestCount)),
					})
				}
				return rows
			})
		})
	},
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Domains registered in the performance store",
	// Short: 性能存储中注册的域名
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			domains := b.GetAvailableDomains(ctx)
			return render(cmd.OutOrStdout(), domains, []string{"DOMAIN", "STATUS"}, func() [][]string {
				rows := make([][]string, 0, len(domains))
				for _, d := range domains {
					rows = append(rows, []string{d.Name, dash(d.Status)})
				}
				return rows
			})
		})
	},
}

func init() {
	slowCmd.Flags().Int("limit", app.DefaultSlowLimit, "Domains to show")
}
