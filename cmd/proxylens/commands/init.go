package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/livp123/proxylens/internal/config"
	"github.com/livp123/proxylens/internal/utils/fileutil"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	// Short: 写入默认配置文件
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfigPath()
		force, _ := cmd.Flags().GetBool("force")
		if fileutil.Exists(path) && !force {
			fmt.Fprintf(cmd.OutOrStdout(), "ℹ️  Config already exists at %s (use --force to overwrite)\n", path)
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := fileutil.AtomicWriteFile(path, []byte(config.DefaultConfigTemplate), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote default config to %s\n", path)
		return nil
	},
	// Runs without loading the config it may be about to create.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
