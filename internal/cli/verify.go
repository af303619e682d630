package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/pkgdesc/internal/core"
)

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Resolve every install requirement against PyPI",
		Long: `Look up each install requirement on PyPI. Pinned requirements must name
a published, non-yanked release; bare requirements resolve to the latest
release.

Exits non-zero when any requirement fails to resolve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			d, err := loadDescriptor(cfg)
			if err != nil {
				return err
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			report, err := verify(ctx, cfg, reg, d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Output != "text" {
				if err := writeStructured(out, cfg.Output, reportView(report)); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}
			return reportErr(report)
		},
	}
	addRegistryFlags(cmd)
	return cmd
}

func printReport(w io.Writer, r *core.Report) {
	t := newTable(w, "Requirement", "Resolved", "Status", "PURL", "Error")
	for _, v := range reportView(r) {
		t.AppendRow(table.Row{v.Requirement, v.Resolved, v.Status, v.PURL, v.Error})
	}
	t.Render()
}

func reportErr(r *core.Report) error {
	if failed := r.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d requirements failed to resolve", len(failed), len(r.Resolutions))
	}
	return nil
}
