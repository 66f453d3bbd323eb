package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/audit-recommender/internal/catalog"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the embedded catalog version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)

		c, err := catalog.Default()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "embedded catalog version: %s\n", c.Version())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
