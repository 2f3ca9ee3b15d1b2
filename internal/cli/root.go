// Package cli wires the adapters together behind a cobra command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/jbsync/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "jbsync",
	Short: "Mirror JetBrains installers into GitHub releases",
	Long: `jbsync watches a JetBrains product download page and, when a new
version appears, republishes the ultimate and community installers as
GitHub release assets, one release per edition per version.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
