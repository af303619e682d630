package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/pkgdesc/discover"
)

type packagesResult struct {
	Packages    []string            `json:"packages" yaml:"packages"`
	PackageData map[string][]string `json:"package_data,omitempty" yaml:"package_data,omitempty"`
}

func newPackagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List the packages found under --root",
		Long: `List every directory under --root that holds an __init__.py and whose
parents are packages too. When the descriptor includes package data the
non-code files shipped in each package are listed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			d, err := loadDescriptor(cfg)
			if err != nil {
				return err
			}

			res := packagesResult{Packages: d.Packages}
			if res.Packages == nil {
				res.Packages = []string{}
			}
			if d.IncludePackageData {
				files, err := discover.PackageData(cfg.Root, d.Packages)
				if err != nil {
					return err
				}
				res.PackageData = make(map[string][]string)
				for _, f := range files {
					res.PackageData[f.Package] = append(res.PackageData[f.Package], f.Path)
				}
			}

			out := cmd.OutOrStdout()
			if cfg.Output != "text" {
				return writeStructured(out, cfg.Output, res)
			}

			if len(res.Packages) == 0 {
				_, _ = fmt.Fprintf(out, "no packages found in %s\n", cfg.Root)
				return nil
			}
			t := newTable(out, "Package", "Data files")
			for _, p := range res.Packages {
				t.AppendRow(table.Row{p, lines(res.PackageData[p])})
			}
			t.Render()
			return nil
		},
	}
}
