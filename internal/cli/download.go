package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/pkgdesc/fetch"
	"github.com/git-pkgs/pkgdesc/internal/config"
)

type downloadView struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Path    string `json:"path" yaml:"path"`
}

func newDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the release artifact of every install requirement",
		Long: `Resolve every install requirement against PyPI and download the
matching sdist (or wheel when no sdist exists) into --dest. Each file is
checked against the sha256 digest PyPI publishes for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			logger := config.GetLogger(ctx)

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
			if err := reportErr(report); err != nil {
				printReport(cmd.ErrOrStderr(), report)
				return err
			}

			infos, err := fetch.NewResolver(reg).ResolveAll(ctx, report)
			if err != nil {
				return err
			}

			getter := fetch.NewCircuitBreakerFetcher(fetch.NewFetcher(
				fetch.WithUserAgent(userAgent()),
				fetch.WithMaxRetries(cfg.MaxRetries),
				fetch.WithTimeout(cfg.DownloadTimeout),
			), 0)
			paths, err := fetch.NewDownloader(getter, logger, cfg.Concurrency).DownloadAll(ctx, infos, cfg.Dest)
			if err != nil {
				return err
			}

			views := make([]downloadView, len(infos))
			for i, info := range infos {
				views[i] = downloadView{Name: info.Name, Version: info.Version, Path: paths[i]}
			}

			out := cmd.OutOrStdout()
			if cfg.Output != "text" {
				return writeStructured(out, cfg.Output, views)
			}
			t := newTable(out, "Name", "Version", "Path")
			for _, v := range views {
				t.AppendRow(table.Row{v.Name, v.Version, v.Path})
			}
			t.Render()
			return nil
		},
	}
	addRegistryFlags(cmd)
	cmd.Flags().String("dest", "", "directory the artifacts are written to")
	cmd.Flags().Duration("download-timeout", 0, "timeout per artifact download (default 5m)")
	return cmd
}
