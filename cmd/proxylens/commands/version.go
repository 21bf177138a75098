package commands

import (
	"fmt"

	"github.com/livp123/proxylens/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the current version of proxylens`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "proxylens %s\n", version.Version)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}
