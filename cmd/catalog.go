package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/audit-recommender/internal/catalog"
	"github.com/spigell/audit-recommender/internal/report"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect recommendation catalogs",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the rules of the active catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("catalog")
		if strings.TrimSpace(path) == "" {
			path = viper.GetString("catalog")
		}
		format, _ := cmd.Flags().GetString("format")

		c, err := loadCatalog(path)
		if err != nil {
			return err
		}

		return showCatalog(cmd, c, format)
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <catalog-file>",
	Short: "Check a catalog file and report every malformed rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, version %q, %d rules\n", args[0], c.Version(), c.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogShowCmd, catalogValidateCmd)

	catalogShowCmd.Flags().String("catalog", "", "catalog file (yaml or json). Default is the embedded catalog")
	catalogShowCmd.Flags().StringP("format", "f", "table", "output format: table, yaml or json")
}

func showCatalog(cmd *cobra.Command, c *catalog.Catalog, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		_, err := fmt.Fprint(cmd.OutOrStdout(), report.Catalog(c))
		return err
	case string(catalog.FormatYAML), string(catalog.FormatJSON):
		data, err := catalog.Marshal(c, catalog.Format(strings.ToLower(strings.TrimSpace(format))))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	default:
		return fmt.Errorf("unknown catalog format %q (expected table, yaml or json)", format)
	}
}
