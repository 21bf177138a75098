package commands

import (
	"context"

	"github.com/livp123/proxylens/internal/api"
	"github.com/livp123/proxylens/internal/utils/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API until interrupted",
	// Short: 提供 JSON 接口直到被中断
	RunE: func(cmd *cobra.Command, args []string) error {
		web := loadedConfig.Web
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			web.Listen = listen
		}
		web.Enabled = true

		return withBackend(cmd, func(ctx context.Context, b Backend) error {
			log := logger.Get(ctx)
			srv := api.NewServer(b, web, loadedConfig.Metrics.Enabled, log)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			log.Infof("🛑 Shutting down API")
			return srv.Stop()
		})
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Override web.listen (host:port)")
}
