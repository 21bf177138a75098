package commands

import (
	"context"
	"fmt"

	"github.com/livp123/proxylens/internal/api"
	"github.com/livp123/proxylens/internal/app"
	"github.com/livp123/proxylens/internal/config"
	"github.com/livp123/proxylens/internal/runtime"
	"github.com/livp123/proxylens/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Backend is what the commands query; *app.Service satisfies it.
// Backend 是命令查询的对象；*app.Service 实现了它。
type Backend interface {
	api.LogService
	Close()
}

// NewBackend builds the backend from the loaded configuration. Tests replace it.
// NewBackend 根据已加载的配置构建后端。测试中会替换它。
var NewBackend = func(ctx context.Context, cfg *config.GlobalConfig) (Backend, error) {
	svc, err := app.NewService(ctx, cfg, app.Deps{Logger: logger.Get(ctx)})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// loadedConfig is set by PersistentPreRunE for the running command.
var loadedConfig *config.GlobalConfig

var RootCmd = &cobra.Command{
	Use:   "proxylens",
	Short: "Reverse proxy log analytics",
	// Short: 反向代理日志分析
	Long: `proxylens reads reverse proxy access, error and ModSecurity logs on demand
and turns them into filtered event lists and security/traffic analytics.
proxylens 按需读取反向代理的访问、错误和 ModSecurity 日志，
并生成过滤后的事件列表以及安全/流量分析。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing config file falls back to defaults; a broken one is an error.
		// 配置文件缺失时使用默认值；配置损坏则报错。
		cm := config.NewConfigManager(config.GetConfigPath())
		if err := cm.LoadOrDefault(); err != nil {
			logger.Init(logger.LoggingConfig{Enabled: true, Level: "info"})
			return fmt.Errorf("failed to load config %s: %w", cm.GetConfigPath(), err)
		}
		loadedConfig = cm.GetConfig()
		logger.Init(loadedConfig.Logging)

		// Inject logger into context
		// 将 Logger 注入 Context
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.WithContext(ctx, logger.Get(nil)))
		return nil
	},
}

func init() {
	// Config file path
	// 配置文件路径
	RootCmd.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))

	// Output format
	// 输出格式
	RootCmd.PersistentFlags().StringVarP(&runtime.Output, "output", "o", "table", "Output format: table or json")

	RootCmd.AddCommand(logsCmd, statsCmd, filesCmd)
	RootCmd.AddCommand(trendCmd, attacksCmd, newsCmd, ipsCmd, ratioCmd)
	RootCmd.AddCommand(slowCmd, domainsCmd)
	RootCmd.AddCommand(serveCmd, initCmd, versionCmd)

	// Disable powershell completion (Linux-focused project doesn't need it)
	// 禁用 powershell 补全（Linux 项目不需要）
	RootCmd.CompletionOptions.DisableDefaultCmd = true
}

// withBackend opens the backend for one command and closes it afterwards.
// withBackend 为单个命令打开后端并在结束后关闭。
func withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
	ctx := cmd.Context()
	b, err := NewBackend(ctx, loadedConfig)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b)
}
