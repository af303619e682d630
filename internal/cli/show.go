package cli

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the package descriptor",
		Long: `Print the descriptor with the packages discovered under --root.

Without --descriptor the built-in trainer descriptor is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			d, err := loadDescriptor(cfg)
			if err != nil {
				return err
			}

			if cfg.Output != "text" {
				return writeStructured(cmd.OutOrStdout(), cfg.Output, d)
			}

			t := newTable(cmd.OutOrStdout(), "Field", "Value")
			t.AppendRows([]table.Row{
				{"name", d.Name},
				{"version", d.Version},
				{"description", d.Description},
			})
			if d.License != "" {
				t.AppendRow(table.Row{"license", d.License})
			}
			t.AppendRows([]table.Row{
				{"install_requires", lines(d.InstallRequires)},
				{"include_package_data", strconv.FormatBool(d.IncludePackageData)},
				{"packages", lines(d.Packages)},
			})
			t.Render()
			return nil
		},
	}
}
